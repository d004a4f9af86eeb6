// Package coordinator schedules batches of agent tasks: it resolves declared
// cross-agent dependencies into sequential stages, executes each stage's
// tasks concurrently through a bounded worker pool, memoizes results in the
// shared cache, and isolates individual task failures so one failing task
// never aborts its siblings or the batch.
//
// Capabilities are plain typed functions registered under an (agent, method)
// pair; there is no reflection-based dispatch. Every outcome, including
// timeouts and recovered panics, is carried as data in a TaskResult rather
// than raised to the caller.
package coordinator
