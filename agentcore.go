// Package agentcore provides a high-level façade over the orchestration
// primitives (task coordination, messaging, circuit breaking & caching)
// enabling rapid construction of multi-agent systems. Most applications
// interact with this package by:
//  1. Creating an AgentCore via New() (optionally overriding defaults)
//  2. Registering agents and task capabilities
//  3. Executing task batches (ExecuteParallelTasks) and exchanging messages
//     (Send, SendRequest, Broadcast)
//
// The façade wires a shared result cache into the coordinator and hands out
// named circuit breakers for guarding external dependencies. All defaults
// are safe for local development and testing.
package agentcore

import (
	"context"
	"time"

	"github.com/agentcore-dev/agentcore/breaker"
	"github.com/agentcore-dev/agentcore/bus"
	"github.com/agentcore-dev/agentcore/cache"
	"github.com/agentcore-dev/agentcore/coordinator"
	"github.com/agentcore-dev/agentcore/core"
	"github.com/agentcore-dev/agentcore/logging"
)

// Options configures the AgentCore instance.
type Options struct {
	// Workers bounds concurrent task execution across batches.
	Workers int

	// ResultTTL is how long successful task results stay memoized.
	ResultTTL time.Duration

	// CacheMaxSize bounds the shared result cache.
	CacheMaxSize int

	// MaxQueueSize bounds each agent's message queue.
	MaxQueueSize int

	// BreakerOptions apply to every breaker created through Breaker().
	BreakerOptions []func(o *breaker.Options)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentCore is the high-level façade aggregating the coordinator, the
// message bus, the breaker registry and the shared cache.
type AgentCore struct {
	opts        Options
	cache       *cache.Cache
	breakers    *breaker.Registry
	bus         *bus.Bus
	coordinator *coordinator.Coordinator
}

// New creates a new AgentCore instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentCore {
	opts := Options{
		Workers:      8,
		ResultTTL:    300 * time.Second,
		CacheMaxSize: cache.DefaultMaxSize,
		MaxQueueSize: 100,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	shared := cache.New(func(o *cache.Options) {
		o.MaxSize = opts.CacheMaxSize
		o.Logger = opts.Logger
	})

	breakerFns := append([]func(o *breaker.Options){func(o *breaker.Options) {
		o.Logger = opts.Logger
	}}, opts.BreakerOptions...)

	return &AgentCore{
		opts:     opts,
		cache:    shared,
		breakers: breaker.NewRegistry(breakerFns...),
		bus: bus.New(func(o *bus.Options) {
			o.MaxQueueSize = opts.MaxQueueSize
			o.Logger = opts.Logger
		}),
		coordinator: coordinator.New(func(o *coordinator.Options) {
			o.Cache = shared
			o.Workers = opts.Workers
			o.ResultTTL = opts.ResultTTL
			o.Logger = opts.Logger
		}),
	}
}

// Start begins background message delivery and cleanup. Idempotent.
func (a *AgentCore) Start() { a.bus.Start() }

// Stop halts message delivery, drains background loops, cancels pending
// request/response exchanges and waits for in-flight task batches.
func (a *AgentCore) Stop() {
	a.bus.Stop()
	a.coordinator.Shutdown()
}

// RegisterAgent subscribes handler to messages addressed to name.
func (a *AgentCore) RegisterAgent(name string, handler core.MessageHandler) {
	a.bus.RegisterAgent(name, handler)
}

// RegisterHandler binds a type-specific handler for one agent, taking
// precedence over the agent's generic handler.
func (a *AgentCore) RegisterHandler(agentName string, msgType core.MessageType, handler core.HandlerFunc) {
	a.bus.RegisterHandler(agentName, msgType, handler)
}

// RegisterTask binds fn as the capability for (agentName, method) tasks.
func (a *AgentCore) RegisterTask(agentName, method string, fn core.TaskFunc) {
	a.coordinator.Register(agentName, method, fn)
}

// ExecuteParallelTasks runs a dependency-aware batch and returns one result
// per agent. See coordinator.Coordinator.ExecuteParallelTasks.
func (a *AgentCore) ExecuteParallelTasks(ctx context.Context, tasks []*core.Task) map[string]*core.TaskResult {
	return a.coordinator.ExecuteParallelTasks(ctx, tasks)
}

// Send enqueues msg for asynchronous delivery.
func (a *AgentCore) Send(msg *core.Message) bool { return a.bus.Send(msg) }

// SendRequest sends a request message and blocks for the correlated response.
func (a *AgentCore) SendRequest(ctx context.Context, sender, recipient string, msgType core.MessageType, payload map[string]any, timeout time.Duration) (any, bool) {
	return a.bus.SendRequest(ctx, sender, recipient, msgType, payload, timeout)
}

// Broadcast fans msgType out to every registered agent except sender and
// returns the number of messages enqueued.
func (a *AgentCore) Broadcast(sender string, msgType core.MessageType, payload map[string]any, priority core.Priority) int {
	return a.bus.Broadcast(sender, msgType, payload, priority)
}

// Breaker returns the named circuit breaker, creating it on first use.
func (a *AgentCore) Breaker(name string) *breaker.Breaker { return a.breakers.Get(name) }

// Cache exposes the shared result cache.
func (a *AgentCore) Cache() *cache.Cache { return a.cache }

// BusMetrics returns a snapshot of messaging counters.
func (a *AgentCore) BusMetrics() bus.Metrics { return a.bus.Metrics() }

// TaskMetrics returns task execution counters with derived rates.
func (a *AgentCore) TaskMetrics() coordinator.PerformanceMetrics {
	return a.coordinator.PerformanceMetrics()
}

// BreakerStats returns per-breaker statistics keyed by breaker name.
func (a *AgentCore) BreakerStats() map[string]breaker.Stats { return a.breakers.Stats() }
