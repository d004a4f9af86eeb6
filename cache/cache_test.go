package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New()

	c.Set("k1", "v1")
	v, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	c := New()
	c.Set("k", 1)
	c.Set("k", 2)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New()
	c.SetWithTTL("short", "v", 20*time.Millisecond)

	_, ok := c.Get("short")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok, "entry should lazily expire on access")
	assert.Equal(t, 0, c.Len())
}

func TestCache_LRUEvictionExhaustive(t *testing.T) {
	c := New(func(o *Options) { o.MaxSize = 3 })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch a and c so b becomes least recently used.
	c.Get("a")
	c.Get("c")

	c.Set("d", 4)

	assert.Equal(t, 3, c.Len(), "cache must never exceed max size")
	_, ok := c.Get("b")
	assert.False(t, ok, "LRU entry should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		assert.Truef(t, ok, "entry %s should survive eviction", k)
	}
}

func TestCache_EvictionSweepsExpiredFirst(t *testing.T) {
	c := New(func(o *Options) { o.MaxSize = 2 })

	c.SetWithTTL("stale", 1, 10*time.Millisecond)
	c.Set("fresh", 2)
	time.Sleep(20 * time.Millisecond)

	// At capacity: the expired entry must be swept instead of evicting fresh.
	c.Set("new", 3)

	_, ok := c.Get("fresh")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, c.Stats().Expirations, int64(1))
}

func TestCache_SizeNeverExceedsMax(t *testing.T) {
	c := New(func(o *Options) { o.MaxSize = 10 })
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		assert.LessOrEqual(t, c.Len(), 10)
	}
}

func TestCache_GetOrCompute(t *testing.T) {
	c := New()
	calls := 0
	compute := func(context.Context) (any, error) {
		calls++
		return "computed", nil
	}

	v, err := c.GetOrCompute(context.Background(), "k", 0, compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls)

	// Second call is a hit; compute must not run.
	v, err = c.GetOrCompute(context.Background(), "k", 0, compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls)
}

func TestCache_GetOrCompute_ErrorNotCached(t *testing.T) {
	c := New()
	sentinel := errors.New("compute failed")
	calls := 0

	_, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (any, error) {
		calls++
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// Failure left nothing behind; the next call computes again.
	v, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (any, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Stats(t *testing.T) {
	c := New()
	c.Set("k", "v")

	c.Get("k")      // hit
	c.Get("absent") // miss
	c.Get("k")      // hit

	s := c.Stats()
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 2.0/3.0, s.HitRate, 1e-9)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(func(o *Options) { o.MaxSize = 50 })

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%10)
			c.Set(key, i)
			c.Get(key)
			_, _ = c.GetOrCompute(context.Background(), key+"-derived", 0, func(context.Context) (any, error) {
				return i * 2, nil
			})
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
	assert.Greater(t, c.Stats().Hits, int64(0))
}
