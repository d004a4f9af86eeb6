package cache

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore-dev/agentcore/logging"
)

const (
	// DefaultMaxSize bounds the entry count when no limit is configured.
	DefaultMaxSize = 1000
	// DefaultTTL is the entry lifetime applied by Set when no TTL is given.
	DefaultTTL = 300 * time.Second
)

// entry is one cached value with its bookkeeping. lastAccess drives LRU
// eviction; hits counts reads served from this entry.
type entry struct {
	value      any
	createdAt  time.Time
	ttl        time.Duration
	hits       int64
	lastAccess time.Time
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

// Options configures a Cache.
type Options struct {
	// MaxSize is the maximum number of live entries. Inserting beyond it
	// triggers an expired sweep followed by LRU eviction. Defaults to 1000.
	MaxSize int
	// DefaultTTL applies to Set/GetOrCompute calls that do not pass a TTL.
	// Defaults to 300s.
	DefaultTTL time.Duration
	// Logger receives eviction and sweep diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Cache is a mutex-guarded TTL/LRU store. A single coarse lock serializes all
// mutating operations, matching the shared-singleton policy of the core:
// correctness over read concurrency, since every Get also mutates recency.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	maxSize    int
	defaultTTL time.Duration
	logger     logging.Logger

	hits        int64
	misses      int64
	evictions   int64
	expirations int64
}

// New constructs an empty cache with optional overrides.
func New(optFns ...func(o *Options)) *Cache {
	opts := Options{
		MaxSize:    DefaultMaxSize,
		DefaultTTL: DefaultTTL,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}

	return &Cache{
		entries:    make(map[string]*entry),
		maxSize:    opts.MaxSize,
		defaultTTL: opts.DefaultTTL,
		logger:     opts.Logger,
	}
}

// Get returns the cached value for key if present and unexpired. Expired
// entries are evicted lazily here. A hit updates the entry's recency and hit
// count; both outcomes update the store counters.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	now := time.Now()
	if e.expired(now) {
		delete(c.entries, key)
		c.expirations++
		c.misses++
		return nil, false
	}

	e.lastAccess = now
	e.hits++
	c.hits++
	return e.value, true
}

// Set inserts or overwrites key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL inserts or overwrites key with an explicit TTL. When the store
// is at capacity the insert is preceded by eviction: first every expired
// entry is swept, then least-recently-used entries are removed until there is
// room. Overwriting an existing key resets its age and recency but does not
// count as a hit.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	now := time.Now()
	c.entries[key] = &entry{value: value, createdAt: now, ttl: ttl, lastAccess: now}
}

// GetOrCompute returns the cached value for key or, on a miss, runs compute,
// stores its result under ttl (0 selects the default) and returns it. Errors
// from compute propagate to the caller and nothing is cached. Concurrent
// misses on the same key may each run compute; see the package documentation.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.SetWithTTL(key, v, ttl)
	return v, nil
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Size        int
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	HitRate     float64
}

// Stats returns a snapshot of the store counters. HitRate is hits over total
// lookups, 0 when no lookups have occurred.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:        len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		HitRate:     rate,
	}
}

// evictLocked makes room for one insertion. Pass one removes every expired
// entry; if the store is still at capacity, pass two repeatedly removes the
// entry with the oldest lastAccess until under the limit. Caller holds c.mu.
func (c *Cache) evictLocked() {
	now := time.Now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			c.expirations++
		}
	}

	for len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldest time.Time
		for key, e := range c.entries {
			if oldestKey == "" || e.lastAccess.Before(oldest) {
				oldestKey = key
				oldest = e.lastAccess
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
		c.evictions++
		c.logger.Debug("cache evicted LRU entry", "key", oldestKey)
	}
}
