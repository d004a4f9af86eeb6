// Package provider defines the provider-agnostic abstraction for external
// AI completion services consumed by agents.
//
// Core goals:
//   - Keep the surface minimal: one prompt in, one completion out
//   - Decouple agent code from vendor SDKs (OpenAI, Anthropic)
//   - Facilitate lightweight mocking for tests (MockProvider)
//
// External providers are the canonical guarded dependency: callers are
// expected to route Complete through a circuit breaker and memoize results
// in a cache rather than calling the vendor API directly.
package provider
