// Package breaker implements per-dependency failure isolation for calls to
// unreliable external operations (market data feeds, completion providers,
// notification transports).
//
// Each Breaker is a small state machine: Closed passes calls through and
// counts consecutive failures; Open fails fast with ErrOpen without invoking
// the wrapped operation; HalfOpen admits trial calls after the open timeout
// and closes again once enough consecutive probes succeed. State transitions
// are serialized under a single mutex so no concurrent transition races are
// observable to callers; the wrapped operation itself runs outside the lock.
//
// Breakers are long-lived, one per guarded dependency name. The Registry
// provides lazy construction and lookup by name with shared defaults.
package breaker
