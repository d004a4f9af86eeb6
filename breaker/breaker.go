package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore-dev/agentcore/logging"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the normal state where calls pass through.
	Closed State = iota
	// Open is the tripped state where calls are rejected without invoking the
	// wrapped operation.
	Open
	// HalfOpen is the trial state allowing probe calls to test recovery.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the breaker is open.
// Rejections never invoke the wrapped operation and are counted separately
// from real failures.
var ErrOpen = errors.New("circuit breaker is open")

// Operation is the guarded call shape. It must respect ctx cancellation;
// a ctx error returned by the operation is recorded as a failure.
type Operation func(ctx context.Context) (any, error)

// Options configures a Breaker.
type Options struct {
	// FailureThreshold is the number of consecutive failures that trips the
	// breaker from Closed to Open. Defaults to 5.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker again. Defaults to 3.
	SuccessThreshold int
	// Timeout is how long the breaker stays Open before the next call is
	// allowed through as a half-open probe. Defaults to 60s.
	Timeout time.Duration
	// Logger receives state transition diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Breaker guards one named external dependency. Create one per dependency at
// startup and share it across callers; it is never destroyed during the
// process lifetime.
type Breaker struct {
	name string

	failureThreshold int
	successThreshold int
	timeout          time.Duration
	logger           logging.Logger

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	halfOpenSuccesses   int
	lastFailure         time.Time

	calls      int64
	successes  int64
	failures   int64
	rejections int64
}

// New constructs a Closed breaker for the named dependency.
func New(name string, optFns ...func(o *Options)) *Breaker {
	opts := Options{
		FailureThreshold: 5,
		SuccessThreshold: 3,
		Timeout:          60 * time.Second,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Breaker{
		name:             name,
		failureThreshold: opts.FailureThreshold,
		successThreshold: opts.SuccessThreshold,
		timeout:          opts.Timeout,
		logger:           opts.Logger,
		state:            Closed,
	}
}

// Name returns the guarded dependency name.
func (b *Breaker) Name() string { return b.name }

// Call executes op under the breaker's policy. It returns the operation's
// result, re-raises the operation's own error after recording a failure, or
// returns ErrOpen (wrapped with the dependency name) without running op.
func (b *Breaker) Call(ctx context.Context, op Operation) (any, error) {
	b.mu.Lock()
	b.calls++

	// The first call attempted after the open timeout elapses moves the
	// breaker into its trial state.
	if b.state == Open && time.Since(b.lastFailure) >= b.timeout {
		b.transitionLocked(HalfOpen)
		b.halfOpenSuccesses = 0
	}

	if b.state == Open {
		b.rejections++
		b.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", b.name, ErrOpen)
	}
	b.mu.Unlock()

	result, err := op(ctx)
	if err != nil {
		b.onFailure()
		return nil, err
	}

	b.onSuccess()
	return result, nil
}

// ForceOpen trips the breaker regardless of failure counts. Operator override.
func (b *Breaker) ForceOpen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailure = time.Now()
	b.transitionLocked(Open)
}

// ForceClose resets the breaker to Closed and clears its counters. Operator override.
func (b *Breaker) ForceClose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.halfOpenSuccesses = 0
	b.transitionLocked(Closed)
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a point-in-time snapshot of breaker health.
type Stats struct {
	Name                string
	State               State
	Calls               int64
	Successes           int64
	Failures            int64
	Rejections          int64
	FailureRate         float64
	ConsecutiveFailures int
	LastFailure         time.Time
}

// Stats returns a snapshot of counters and state. FailureRate is failures
// over executed calls (rejections excluded), 0 when nothing has executed.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	executed := b.calls - b.rejections
	rate := 0.0
	if executed > 0 {
		rate = float64(b.failures) / float64(executed)
	}

	return Stats{
		Name:                b.name,
		State:               b.state,
		Calls:               b.calls,
		Successes:           b.successes,
		Failures:            b.failures,
		Rejections:          b.rejections,
		FailureRate:         rate,
		ConsecutiveFailures: b.consecutiveFailures,
		LastFailure:         b.lastFailure,
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++

	switch b.state {
	case HalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.successThreshold {
			b.consecutiveFailures = 0
			b.halfOpenSuccesses = 0
			b.transitionLocked(Closed)
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case HalfOpen:
		// A single failed probe reopens the circuit.
		b.transitionLocked(Open)
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.transitionLocked(Open)
		}
	}
}

// transitionLocked changes state and logs the edge. Caller holds b.mu.
func (b *Breaker) transitionLocked(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.logger.Warn("circuit state changed", "breaker", b.name, "from", from.String(), "to", to.String())
}
