// Package bus provides the in-process inter-agent message bus: prioritized
// per-recipient queues with deduplication, expiration, bounded retries and
// optional request/response correlation.
//
// Delivery is best-effort and at-most-once per attempt. A single background
// delivery loop scans every recipient queue, popping at most one message per
// recipient per scan, so two messages to the same recipient are never in
// flight concurrently. Failed deliveries are re-enqueued at the tail after an
// exponential backoff; messages that exhaust their retries are dropped and
// counted as permanently failed. A second background loop sweeps expired
// messages and stale pending responses every cleanup interval.
//
// Both loops are started with Start and torn down with Stop, which also
// cancels every still-pending correlated response. Queue bounds, dedup window
// and scan cadence are tunable via Options; the defaults mirror the source
// system (100-message queues, 100-entry/60s dedup window, 30s cleanup).
package bus
