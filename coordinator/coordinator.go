package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore-dev/agentcore/cache"
	"github.com/agentcore-dev/agentcore/core"
	"github.com/agentcore-dev/agentcore/logging"
)

// ErrUnknownCapability is recorded when a task names an (agent, method) pair
// with no registered capability.
var ErrUnknownCapability = errors.New("no capability registered")

// ErrShutdown is recorded for tasks submitted after Shutdown.
var ErrShutdown = errors.New("coordinator is shut down")

// Options configures a Coordinator.
type Options struct {
	// Cache memoizes successful task results by signature. A nil value gets a
	// private cache with default sizing.
	Cache *cache.Cache
	// Workers bounds how many task capabilities may execute concurrently
	// across all stages. Defaults to 8.
	Workers int
	// ResultTTL is the memoization lifetime of a successful TaskResult.
	// Defaults to 300s.
	ResultTTL time.Duration
	// Logger receives scheduling and execution diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// capKey identifies one registered capability.
type capKey struct {
	agent  string
	method string
}

// Coordinator owns the capability table, the worker pool and the batch
// execution pipeline. All public methods are safe for concurrent use.
type Coordinator struct {
	cache     *cache.Cache
	resultTTL time.Duration
	logger    logging.Logger

	regMu        sync.RWMutex
	capabilities map[capKey]core.TaskFunc

	// sem is the bounded worker pool; each executing capability holds one slot.
	sem chan struct{}

	mu               sync.Mutex
	closed           bool
	inflight         sync.WaitGroup
	totalTasks       int64
	successfulTasks  int64
	failedTasks      int64
	cacheHits        int64
	cacheMisses      int64
	avgExecutionTime time.Duration
}

// New constructs a Coordinator with optional overrides.
func New(optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		Workers:   8,
		ResultTTL: 300 * time.Second,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Cache == nil {
		opts.Cache = cache.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}

	return &Coordinator{
		cache:        opts.Cache,
		resultTTL:    opts.ResultTTL,
		logger:       opts.Logger,
		capabilities: make(map[capKey]core.TaskFunc),
		sem:          make(chan struct{}, opts.Workers),
	}
}

// Register binds fn as the capability invoked for tasks naming the (agent,
// method) pair. Re-registering replaces the previous binding.
func (c *Coordinator) Register(agentName, method string, fn core.TaskFunc) {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	c.capabilities[capKey{agent: agentName, method: method}] = fn
}

// lookup returns the capability for the task, if registered.
func (c *Coordinator) lookup(task *core.Task) (core.TaskFunc, bool) {
	c.regMu.RLock()
	defer c.regMu.RUnlock()
	fn, ok := c.capabilities[capKey{agent: task.AgentName, method: task.Method}]
	return fn, ok
}

// ExecuteParallelTasks runs the batch: dependencies are resolved into stages,
// stages run strictly sequentially, tasks within a stage concurrently. The
// returned map is keyed by agent name and always contains one result per
// distinct agent; failures (including timeouts and panics) are data in the
// result, never an error to the caller.
func (c *Coordinator) ExecuteParallelTasks(ctx context.Context, tasks []*core.Task) map[string]*core.TaskResult {
	results := make(map[string]*core.TaskResult)
	if len(tasks) == 0 {
		return results
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn("batch rejected: coordinator is shut down", "tasks", len(tasks))
		for _, task := range tasks {
			results[task.AgentName] = c.failedResult(task, ErrShutdown, 0)
		}
		return results
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	stages := groupStages(c.resolveOrder(tasks))
	c.logger.Debug("batch planned", "tasks", len(tasks), "stages", len(stages))

	var resultsMu sync.Mutex
	for i, stage := range stages {
		var wg sync.WaitGroup
		for _, task := range stage {
			wg.Add(1)
			go func(task *core.Task) {
				defer wg.Done()
				res := c.executeTask(ctx, task)
				resultsMu.Lock()
				results[task.AgentName] = res
				resultsMu.Unlock()
			}(task)
		}
		wg.Wait()
		c.logger.Debug("stage completed", "stage", i, "tasks", len(stage))
	}

	return results
}

// executeTask produces the TaskResult for one task: cache short-circuit,
// capability lookup, bounded timed execution, metrics accounting.
func (c *Coordinator) executeTask(ctx context.Context, task *core.Task) *core.TaskResult {
	signature := task.Signature()

	lookupStart := time.Now()
	if cached, ok := c.cache.Get(signature); ok {
		if prior, ok := cached.(*core.TaskResult); ok {
			hit := *prior
			hit.FromCache = true
			// The hit costs a lookup, not the original execution; the running
			// average must not re-count the prior duration.
			hit.Duration = time.Since(lookupStart)
			c.recordResult(&hit, true)
			return &hit
		}
	}

	fn, ok := c.lookup(task)
	if !ok {
		res := c.failedResult(task, fmt.Errorf("%s.%s: %w", task.AgentName, task.Method, ErrUnknownCapability), 0)
		c.recordResult(res, false)
		return res
	}

	start := time.Now()
	value, err := c.invoke(ctx, task, fn)
	elapsed := time.Since(start)

	res := &core.TaskResult{
		AgentName: task.AgentName,
		Signature: signature,
		Success:   err == nil,
		Value:     value,
		Duration:  elapsed,
		Err:       err,
		Timestamp: time.Now(),
		Method:    task.Method,
	}

	if err == nil {
		c.cache.SetWithTTL(signature, res, c.resultTTL)
	}

	c.recordResult(res, false)
	c.logger.Debug("task executed", "agent", task.AgentName, "method", task.Method, "success", res.Success, "duration", elapsed)
	return res
}

// invoke runs the capability on the worker pool under the task's timeout.
// Panics inside the capability are recovered into an error; a timeout yields
// core.ErrTimeout wrapped with the task identity, while cancellation of the
// batch context surfaces as context.Canceled.
func (c *Coordinator) invoke(ctx context.Context, task *core.Task, fn core.TaskFunc) (any, error) {
	taskCtx, cancel := context.WithTimeout(ctx, task.EffectiveTimeout())
	defer cancel()

	select {
	case c.sem <- struct{}{}:
	case <-taskCtx.Done():
		return nil, abortErr(task, taskCtx.Err())
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() { <-c.sem }()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s.%s: task panicked: %v", task.AgentName, task.Method, r)}
			}
		}()
		value, err := fn(taskCtx, task.Args, task.Kwargs)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-taskCtx.Done():
		// The capability keeps its pool slot until it observes cancellation;
		// the result is decided now regardless.
		return nil, abortErr(task, taskCtx.Err())
	}
}

// abortErr maps context termination to the task's failure: a missed deadline
// is a timeout, an explicit batch cancellation stays context.Canceled.
func abortErr(task *core.Task, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return fmt.Errorf("%s.%s: %w", task.AgentName, task.Method, context.Canceled)
	}
	return fmt.Errorf("%s.%s: %w", task.AgentName, task.Method, core.ErrTimeout)
}

func (c *Coordinator) failedResult(task *core.Task, err error, dur time.Duration) *core.TaskResult {
	return &core.TaskResult{
		AgentName: task.AgentName,
		Signature: task.Signature(),
		Duration:  dur,
		Err:       err,
		Timestamp: time.Now(),
		Method:    task.Method,
	}
}

// recordResult updates running metrics after every task.
func (c *Coordinator) recordResult(res *core.TaskResult, fromCache bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalTasks++
	if res.Success {
		c.successfulTasks++
	} else {
		c.failedTasks++
	}
	if fromCache {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}

	n := c.totalTasks
	c.avgExecutionTime = time.Duration((int64(c.avgExecutionTime)*(n-1) + int64(res.Duration)) / n)
}

// Metrics is a snapshot of batch execution counters.
type Metrics struct {
	TotalTasks       int64
	SuccessfulTasks  int64
	FailedTasks      int64
	CacheHits        int64
	CacheMisses      int64
	AvgExecutionTime time.Duration
}

// PerformanceMetrics adds derived rates to the raw counters.
type PerformanceMetrics struct {
	Metrics
	SuccessRate  float64
	FailureRate  float64
	CacheHitRate float64
}

// Metrics returns the raw counters.
func (c *Coordinator) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Metrics{
		TotalTasks:       c.totalTasks,
		SuccessfulTasks:  c.successfulTasks,
		FailedTasks:      c.failedTasks,
		CacheHits:        c.cacheHits,
		CacheMisses:      c.cacheMisses,
		AvgExecutionTime: c.avgExecutionTime,
	}
}

// PerformanceMetrics returns counters plus success, failure and cache-hit
// rates; rates are 0 when no tasks have run.
func (c *Coordinator) PerformanceMetrics() PerformanceMetrics {
	m := c.Metrics()
	pm := PerformanceMetrics{Metrics: m}
	if m.TotalTasks > 0 {
		pm.SuccessRate = float64(m.SuccessfulTasks) / float64(m.TotalTasks)
		pm.FailureRate = float64(m.FailedTasks) / float64(m.TotalTasks)
		pm.CacheHitRate = float64(m.CacheHits) / float64(m.TotalTasks)
	}
	return pm
}

// ClearCache drops all memoized task results.
func (c *Coordinator) ClearCache() {
	c.cache.Clear()
}

// Shutdown stops accepting batches and blocks until in-flight stage work has
// drained. Idempotent.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.inflight.Wait()
	c.logger.Info("coordinator shut down")
}
