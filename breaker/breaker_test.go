package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("downstream failed")

func failingOp(context.Context) (any, error) { return nil, errBoom }

func succeedingOp(context.Context) (any, error) { return "ok", nil }

func newTestBreaker(failures, successes int, timeout time.Duration) *Breaker {
	return New("market-data", func(o *Options) {
		o.FailureThreshold = failures
		o.SuccessThreshold = successes
		o.Timeout = timeout
	})
}

func trip(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := b.Call(context.Background(), failingOp)
		require.ErrorIs(t, err, errBoom)
	}
}

func TestBreaker_PassThroughWhileClosed(t *testing.T) {
	b := newTestBreaker(3, 2, time.Minute)

	v, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_OpensAtFailureThreshold(t *testing.T) {
	b := newTestBreaker(3, 2, time.Minute)

	trip(t, b, 3)
	assert.Equal(t, Open, b.State())

	// The next call must be rejected without invoking the operation.
	invoked := false
	_, err := b.Call(context.Background(), func(context.Context) (any, error) {
		invoked = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked)

	s := b.Stats()
	assert.Equal(t, int64(1), s.Rejections)
	assert.Equal(t, int64(3), s.Failures)
}

func TestBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	b := newTestBreaker(3, 2, time.Minute)

	trip(t, b, 2)
	_, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)

	// Two more failures must not trip a threshold of three.
	trip(t, b, 2)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenProbeAfterTimeout(t *testing.T) {
	b := newTestBreaker(1, 2, 20*time.Millisecond)

	trip(t, b, 1)
	assert.Equal(t, Open, b.State())

	time.Sleep(30 * time.Millisecond)

	// First call after the timeout passes through as a probe.
	invoked := false
	v, err := b.Call(context.Background(), func(context.Context) (any, error) {
		invoked = true
		return "probe", nil
	})
	require.NoError(t, err)
	assert.True(t, invoked)
	assert.Equal(t, "probe", v)
	assert.Equal(t, HalfOpen, b.State())
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := newTestBreaker(1, 3, 10*time.Millisecond)

	trip(t, b, 1)
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 2; i++ {
		_, err := b.Call(context.Background(), succeedingOp)
		require.NoError(t, err)
		assert.Equal(t, HalfOpen, b.State())
	}

	_, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := newTestBreaker(1, 3, 10*time.Millisecond)

	trip(t, b, 1)
	time.Sleep(20 * time.Millisecond)

	_, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)
	assert.Equal(t, HalfOpen, b.State())

	_, err = b.Call(context.Background(), failingOp)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, Open, b.State())

	// Still within the fresh timeout window: reject.
	_, err = b.Call(context.Background(), succeedingOp)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBreaker_ForceOverrides(t *testing.T) {
	b := newTestBreaker(5, 3, time.Minute)

	b.ForceOpen()
	_, err := b.Call(context.Background(), succeedingOp)
	assert.ErrorIs(t, err, ErrOpen)

	b.ForceClose()
	_, err = b.Call(context.Background(), succeedingOp)
	assert.NoError(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_Stats(t *testing.T) {
	b := newTestBreaker(2, 3, time.Minute)

	_, _ = b.Call(context.Background(), succeedingOp)
	trip(t, b, 2)
	_, _ = b.Call(context.Background(), succeedingOp) // rejected

	s := b.Stats()
	assert.Equal(t, "market-data", s.Name)
	assert.Equal(t, Open, s.State)
	assert.Equal(t, int64(4), s.Calls)
	assert.Equal(t, int64(1), s.Successes)
	assert.Equal(t, int64(2), s.Failures)
	assert.Equal(t, int64(1), s.Rejections)
	assert.InDelta(t, 2.0/3.0, s.FailureRate, 1e-9)
	assert.False(t, s.LastFailure.IsZero())
}

func TestBreaker_ConcurrentCalls(t *testing.T) {
	b := newTestBreaker(1000, 3, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = b.Call(context.Background(), succeedingOp)
			} else {
				_, _ = b.Call(context.Background(), failingOp)
			}
		}(i)
	}
	wg.Wait()

	s := b.Stats()
	assert.Equal(t, int64(50), s.Calls)
	assert.Equal(t, int64(25), s.Successes)
	assert.Equal(t, int64(25), s.Failures)
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r := NewRegistry(func(o *Options) { o.FailureThreshold = 1 })

	b1 := r.Get("market-data")
	b2 := r.Get("market-data")
	assert.Same(t, b1, b2)

	b3 := r.Get("completion")
	assert.NotSame(t, b1, b3)
	assert.ElementsMatch(t, []string{"market-data", "completion"}, r.Names())

	trip(t, b1, 1)
	stats := r.Stats()
	assert.Equal(t, Open, stats["market-data"].State)
	assert.Equal(t, Closed, stats["completion"].State)
}
