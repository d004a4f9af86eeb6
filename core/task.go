package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTaskTimeout caps task execution when the caller does not set one.
const DefaultTaskTimeout = 30 * time.Second

// TaskStatus describes the lifecycle state of a task inside the coordinator.
type TaskStatus string

const (
	// TaskPending means the task is scheduled but its stage has not started.
	TaskPending TaskStatus = "pending"
	// TaskRunning means the task's capability is currently executing.
	TaskRunning TaskStatus = "running"
	// TaskSucceeded means the capability returned a value.
	TaskSucceeded TaskStatus = "succeeded"
	// TaskFailed means the capability returned an error or panicked.
	TaskFailed TaskStatus = "failed"
	// TaskTimedOut means the capability exceeded the task's timeout.
	TaskTimedOut TaskStatus = "timed_out"
)

// Task is one unit of work bound to a named agent and method. Tasks are
// immutable once submitted to the coordinator; DependsOn names the agents
// whose tasks must complete (in an earlier stage) before this one starts.
type Task struct {
	AgentName  string
	Method     string
	Args       []any
	Kwargs     map[string]any
	Priority   int
	Timeout    time.Duration
	MaxRetries int
	DependsOn  []string
}

// EffectiveTimeout returns the task timeout or the package default when unset.
func (t *Task) EffectiveTimeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultTaskTimeout
}

// Signature returns the deterministic identity of the task derived from its
// agent, method and arguments. It serves as both the result-cache key and a
// deduplication key: two tasks with equal signatures describe the same
// computation. Map keys are marshaled in sorted order, so structurally equal
// kwargs hash identically.
func (t *Task) Signature() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s.%s|", t.AgentName, t.Method)
	if data, err := json.Marshal(t.Args); err == nil {
		h.Write(data)
	}
	h.Write([]byte("|"))
	if data, err := json.Marshal(t.Kwargs); err == nil {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TaskResult is the outcome of executing a task. Failures are carried as data
// in Err; nothing below the batch boundary surfaces as a panic or an error
// return to sibling tasks.
type TaskResult struct {
	AgentName string
	Signature string
	Success   bool
	Value     any
	Duration  time.Duration
	Err       error
	// FromCache marks results served from the memoization cache without
	// executing the capability.
	FromCache  bool
	Timestamp  time.Time
	Method     string
	RetryCount int
}

// Status derives the lifecycle terminal state from the result fields.
func (r *TaskResult) Status() TaskStatus {
	switch {
	case r.Success:
		return TaskSucceeded
	case r.Err != nil && IsTimeout(r.Err):
		return TaskTimedOut
	default:
		return TaskFailed
	}
}
