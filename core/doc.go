// Package core provides the foundational domain types and contracts shared by
// the orchestration components. It defines:
//
//   - Tasks (units of agent work with dependencies, priority and timeout)
//   - TaskResults (per-task outcomes carried as data, never panics)
//   - Messages (prioritized inter-agent communication envelopes)
//   - Handler contracts for message delivery and task capabilities
//   - Deterministic signatures used as cache and deduplication keys
//
// The package intentionally keeps implementation concerns (queueing, caching,
// scheduling, failure isolation) out of scope, exposing small types and
// interfaces so the cache, breaker, bus and coordinator packages can evolve
// independently. All exported identifiers include concise documentation to
// aid discoverability and external consumption.
package core
