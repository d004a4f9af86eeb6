// Package cache provides a process-local TTL/LRU key-value store used to
// memoize expensive agent computations (task results, provider responses).
//
// Entries are bounded by a maximum count and a per-entry TTL. Expired entries
// are evicted lazily on access and swept eagerly when the store is at
// capacity; remaining overflow is resolved by least-recently-used eviction.
// Misses are not errors. The store is safe for concurrent use.
//
// GetOrCompute deliberately offers no stampede protection: concurrent callers
// missing on the same key may each run the compute callback. This mirrors the
// source system's behavior and keeps the lock out of the compute path; callers
// needing single-flight semantics must coordinate externally.
package cache
