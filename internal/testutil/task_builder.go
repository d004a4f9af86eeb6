package testutil

import (
	"time"

	"github.com/agentcore-dev/agentcore/core"
)

// TaskBuilder provides a fluent helper for constructing tasks in tests.
// Example:
//
//	task := NewTaskBuilder("risk", "assess").Arg("ACME").Priority(3).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TaskBuilder struct {
	agentName string
	method    string
	args      []any
	kwargs    map[string]any
	priority  int
	timeout   time.Duration
	dependsOn []string
}

// NewTaskBuilder creates a builder for a task targeting (agentName, method).
func NewTaskBuilder(agentName, method string) *TaskBuilder {
	return &TaskBuilder{agentName: agentName, method: method}
}

// Arg appends a positional argument (chainable).
func (b *TaskBuilder) Arg(v any) *TaskBuilder { b.args = append(b.args, v); return b }

// Kwarg sets a keyword argument (chainable).
func (b *TaskBuilder) Kwarg(key string, val any) *TaskBuilder {
	if b.kwargs == nil {
		b.kwargs = map[string]any{}
	}
	b.kwargs[key] = val
	return b
}

// Priority sets the scheduling priority (chainable).
func (b *TaskBuilder) Priority(p int) *TaskBuilder { b.priority = p; return b }

// Timeout overrides the default task timeout (chainable).
func (b *TaskBuilder) Timeout(d time.Duration) *TaskBuilder { b.timeout = d; return b }

// DependsOn appends agent names this task must wait for (chainable).
func (b *TaskBuilder) DependsOn(agents ...string) *TaskBuilder {
	b.dependsOn = append(b.dependsOn, agents...)
	return b
}

// Build produces the task.
func (b *TaskBuilder) Build() *core.Task {
	return &core.Task{
		AgentName: b.agentName,
		Method:    b.method,
		Args:      b.args,
		Kwargs:    b.kwargs,
		Priority:  b.priority,
		Timeout:   b.timeout,
		DependsOn: b.dependsOn,
	}
}
