package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// pendingResponse is a promise awaiting a correlated reply. It is resolved at
// most once, either by the delivery loop with a handler's return value or by
// cancellation on timeout, cleanup, or bus shutdown.
type pendingResponse struct {
	correlationID string
	createdAt     time.Time
	once          sync.Once
	ch            chan any
	resolved      atomic.Bool
}

func newPendingResponse(correlationID string) *pendingResponse {
	return &pendingResponse{
		correlationID: correlationID,
		createdAt:     time.Now(),
		ch:            make(chan any, 1),
	}
}

// resolve completes the promise with value. Subsequent calls are no-ops.
func (p *pendingResponse) resolve(value any) {
	p.once.Do(func() {
		p.resolved.Store(true)
		p.ch <- value
		close(p.ch)
	})
}

// cancel completes the promise with no value; the waiter observes a closed
// channel. Subsequent calls are no-ops.
func (p *pendingResponse) cancel() {
	p.once.Do(func() {
		close(p.ch)
	})
}
