package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore-dev/agentcore/core"
	"github.com/agentcore-dev/agentcore/logging"
)

// Options configures a Bus.
type Options struct {
	// MaxQueueSize bounds each recipient queue. When a send would exceed it,
	// the oldest message of the lowest-priority band is dropped (counted as
	// expired) to make room for the new one. Defaults to 100.
	MaxQueueSize int
	// DedupWindow is how long a send signature suppresses structurally
	// identical re-sends. Defaults to 60s.
	DedupWindow time.Duration
	// DedupHistory caps the number of remembered send signatures. Defaults
	// to 100. Together with DedupWindow this is a tunable simplicity/accuracy
	// trade-off, not a hard protocol requirement.
	DedupHistory int
	// ScanInterval is the delivery loop's yield between full queue scans.
	// Defaults to 5ms.
	ScanInterval time.Duration
	// CleanupInterval is the cadence of the expired-message and stale-pending
	// sweep. Defaults to 30s.
	CleanupInterval time.Duration
	// PendingTimeout is the maximum age of an unresolved pending response
	// before cleanup cancels it. Defaults to 5m.
	PendingTimeout time.Duration
	// BackoffBase scales the exponential redelivery backoff: a message on its
	// nth retry is re-enqueued after BackoffBase * 2^n. Defaults to 1s.
	BackoffBase time.Duration
	// Logger receives delivery and lifecycle diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Metrics is a point-in-time snapshot of bus throughput and queue health.
type Metrics struct {
	Sent             int64
	Delivered        int64
	Failed           int64
	Expired          int64
	Duplicates       int64
	Retries          int64
	AvgDeliveryTime  time.Duration
	QueueSizes       map[string]int
	PendingResponses int
}

// Bus routes messages between named agents. All public methods are safe for
// concurrent use; delivery itself is confined to the single background loop.
type Bus struct {
	maxQueueSize    int
	dedupWindow     time.Duration
	dedupHistory    int
	scanInterval    time.Duration
	cleanupInterval time.Duration
	pendingTimeout  time.Duration
	backoffBase     time.Duration
	logger          logging.Logger

	// Registration maps, guarded separately so handler lookups during
	// delivery never contend with queue mutation.
	regMu  sync.RWMutex
	agents map[string]core.MessageHandler
	typed  map[string]map[core.MessageType]core.HandlerFunc

	// Queues and the dedup history share one lock: every send touches both.
	mu      sync.Mutex
	queues  map[string][]*core.Message
	dedup   []dedupRecord
	stopped bool

	pendingMu sync.Mutex
	pending   map[string]*pendingResponse

	metricsMu   sync.Mutex
	sent        int64
	delivered   int64
	failed      int64
	expired     int64
	duplicates  int64
	retries     int64
	avgDelivery time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type dedupRecord struct {
	signature string
	sentAt    time.Time
}

// New constructs a stopped Bus with optional overrides. Call Start to launch
// the delivery and cleanup loops.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		MaxQueueSize:    100,
		DedupWindow:     60 * time.Second,
		DedupHistory:    100,
		ScanInterval:    5 * time.Millisecond,
		CleanupInterval: 30 * time.Second,
		PendingTimeout:  5 * time.Minute,
		BackoffBase:     time.Second,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{
		maxQueueSize:    opts.MaxQueueSize,
		dedupWindow:     opts.DedupWindow,
		dedupHistory:    opts.DedupHistory,
		scanInterval:    opts.ScanInterval,
		cleanupInterval: opts.CleanupInterval,
		pendingTimeout:  opts.PendingTimeout,
		backoffBase:     opts.BackoffBase,
		logger:          opts.Logger,
		agents:          make(map[string]core.MessageHandler),
		typed:           make(map[string]map[core.MessageType]core.HandlerFunc),
		queues:          make(map[string][]*core.Message),
		pending:         make(map[string]*pendingResponse),
	}
}

// RegisterAgent makes name a valid recipient with handler as its generic
// delivery target. A nil handler is a no-op: an agent cannot receive messages
// without one.
func (b *Bus) RegisterAgent(name string, handler core.MessageHandler) {
	if handler == nil {
		return
	}
	b.regMu.Lock()
	defer b.regMu.Unlock()
	b.agents[name] = handler
}

// RegisterHandler installs a type-specific handler for the agent, taking
// precedence over the agent's generic HandleMessage for that message type.
func (b *Bus) RegisterHandler(agentName string, msgType core.MessageType, handler core.HandlerFunc) {
	if handler == nil {
		return
	}
	b.regMu.Lock()
	defer b.regMu.Unlock()
	if _, ok := b.typed[agentName]; !ok {
		b.typed[agentName] = make(map[core.MessageType]core.HandlerFunc)
	}
	b.typed[agentName][msgType] = handler
}

// Send queues msg for its recipient. It returns false without queuing when
// the recipient is unregistered. A send structurally identical to a recent
// one (same sender, recipient, type and payload within the dedup window) is
// treated as already sent and returns true without re-queuing.
func (b *Bus) Send(msg *core.Message) bool {
	b.regMu.RLock()
	_, known := b.agents[msg.Recipient]
	b.regMu.RUnlock()
	if !known {
		b.logger.Debug("send rejected: unknown recipient", "recipient", msg.Recipient, "type", string(msg.Type))
		return false
	}

	b.mu.Lock()
	if b.isDuplicateLocked(msg) {
		b.mu.Unlock()
		b.metricsMu.Lock()
		b.duplicates++
		b.metricsMu.Unlock()
		return true
	}
	b.recordSendLocked(msg)
	b.enqueueLocked(msg)
	b.mu.Unlock()

	b.metricsMu.Lock()
	b.sent++
	b.metricsMu.Unlock()
	return true
}

// isDuplicateLocked scans the recent-send history for msg's signature,
// pruning records older than the window as it goes. Caller holds b.mu.
func (b *Bus) isDuplicateLocked(msg *core.Message) bool {
	now := time.Now()
	live := b.dedup[:0]
	for _, rec := range b.dedup {
		if now.Sub(rec.sentAt) < b.dedupWindow {
			live = append(live, rec)
		}
	}
	b.dedup = live

	sig := msg.DedupSignature()
	for _, rec := range b.dedup {
		if rec.signature == sig {
			return true
		}
	}
	return false
}

// recordSendLocked appends msg's signature to the dedup history, evicting the
// oldest record beyond the history cap. Caller holds b.mu.
func (b *Bus) recordSendLocked(msg *core.Message) {
	b.dedup = append(b.dedup, dedupRecord{signature: msg.DedupSignature(), sentAt: time.Now()})
	if len(b.dedup) > b.dedupHistory {
		b.dedup = b.dedup[len(b.dedup)-b.dedupHistory:]
	}
}

// enqueueLocked inserts msg into its recipient queue at the first position
// whose existing priority is strictly lower, preserving FIFO among equals.
// A full queue sheds the oldest message of its lowest-priority band, so
// overflow never costs a higher-priority message its slot. Caller holds b.mu.
func (b *Bus) enqueueLocked(msg *core.Message) {
	queue := b.queues[msg.Recipient]

	if len(queue) >= b.maxQueueSize {
		// The queue is ordered by descending priority, so the lowest band is
		// the tail; its first element is the band's oldest entry.
		bandStart := len(queue) - 1
		for bandStart > 0 && queue[bandStart-1].Priority == queue[len(queue)-1].Priority {
			bandStart--
		}
		dropped := queue[bandStart]
		queue = append(queue[:bandStart], queue[bandStart+1:]...)
		b.metricsMu.Lock()
		b.expired++
		b.metricsMu.Unlock()
		b.logger.Debug("queue full, dropped oldest low-priority message", "recipient", msg.Recipient, "dropped_id", dropped.ID)
	}

	pos := len(queue)
	for i, queued := range queue {
		if queued.Priority < msg.Priority {
			pos = i
			break
		}
	}

	queue = append(queue, nil)
	copy(queue[pos+1:], queue[pos:])
	queue[pos] = msg
	b.queues[msg.Recipient] = queue
}

// SendRequest sends a correlated request to recipient and waits up to timeout
// for a response message's handler value. It returns the response value and
// true, or nil and false on timeout, cancellation, or send failure. The
// pending entry is discarded in every exit path.
func (b *Bus) SendRequest(ctx context.Context, sender, recipient string, msgType core.MessageType, payload map[string]any, timeout time.Duration) (any, bool) {
	correlationID := uuid.NewString()
	pending := newPendingResponse(correlationID)

	b.pendingMu.Lock()
	b.pending[correlationID] = pending
	b.pendingMu.Unlock()

	defer func() {
		b.pendingMu.Lock()
		delete(b.pending, correlationID)
		b.pendingMu.Unlock()
	}()

	msg := core.NewMessage(sender, recipient, msgType, payload, func(o *core.MessageOptions) {
		o.Priority = core.PriorityHigh
		o.CorrelationID = correlationID
	})

	if !b.Send(msg) {
		pending.cancel()
		return nil, false
	}

	select {
	case value, ok := <-pending.ch:
		if !ok {
			return nil, false
		}
		return value, true
	case <-time.After(timeout):
		pending.cancel()
		return nil, false
	case <-ctx.Done():
		pending.cancel()
		return nil, false
	}
}

// Broadcast sends payload individually to every registered agent except the
// sender and returns the number of successful sends.
func (b *Bus) Broadcast(sender string, msgType core.MessageType, payload map[string]any, priority core.Priority) int {
	b.regMu.RLock()
	recipients := make([]string, 0, len(b.agents))
	for name := range b.agents {
		if name != sender {
			recipients = append(recipients, name)
		}
	}
	b.regMu.RUnlock()

	count := 0
	for _, recipient := range recipients {
		msg := core.NewMessage(sender, recipient, msgType, payload, func(o *core.MessageOptions) {
			o.Priority = priority
		})
		if b.Send(msg) {
			count++
		}
	}
	return count
}

// Start launches the delivery and cleanup loops. It is a no-op when the bus
// is already running.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.stopped = false
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	b.wg.Add(2)
	go b.deliveryLoop(ctx)
	go b.cleanupLoop(ctx)

	b.logger.Info("message bus started")
}

// Stop cancels the background loops, waits for them to exit, and cancels all
// still-pending correlated responses. Queued messages remain in place.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.stopped = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	b.pendingMu.Lock()
	for id, p := range b.pending {
		p.cancel()
		delete(b.pending, id)
	}
	b.pendingMu.Unlock()

	b.logger.Info("message bus stopped")
}

// deliveryLoop repeatedly scans every recipient queue, delivering at most one
// message per recipient per scan and yielding briefly between scans.
func (b *Bus) deliveryLoop(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.scanInterval):
		}
		b.scanQueues(ctx)
	}
}

// scanQueues pops the head of each non-empty queue and attempts delivery.
func (b *Bus) scanQueues(ctx context.Context) {
	b.mu.Lock()
	batch := make([]*core.Message, 0, len(b.queues))
	for recipient, queue := range b.queues {
		if len(queue) == 0 {
			continue
		}
		batch = append(batch, queue[0])
		b.queues[recipient] = queue[1:]
	}
	b.mu.Unlock()

	for _, msg := range batch {
		b.deliver(ctx, msg)
	}
}

// deliver attempts one delivery of msg: expiry check, handler dispatch,
// correlation resolution, then retry or permanent-failure accounting.
func (b *Bus) deliver(ctx context.Context, msg *core.Message) {
	if msg.Expired(time.Now()) {
		b.metricsMu.Lock()
		b.expired++
		b.metricsMu.Unlock()
		b.logger.Debug("dropped expired message", "id", msg.ID, "recipient", msg.Recipient)
		return
	}

	handler := b.lookupHandler(msg)
	if handler == nil {
		b.handleFailure(ctx, msg, nil)
		return
	}

	start := time.Now()
	result, err := handler.HandleMessage(ctx, msg)
	elapsed := time.Since(start)

	if err != nil {
		b.logger.Warn("message delivery failed", "id", msg.ID, "recipient", msg.Recipient, "retry", msg.RetryCount, "error", err)
		b.handleFailure(ctx, msg, err)
		return
	}

	b.metricsMu.Lock()
	b.delivered++
	// Incremental mean; n is the delivered count including this delivery.
	n := b.delivered
	b.avgDelivery = time.Duration((int64(b.avgDelivery)*(n-1) + int64(elapsed)) / n)
	b.metricsMu.Unlock()

	if msg.CorrelationID != "" {
		b.resolvePending(msg.CorrelationID, result)
	}
}

// lookupHandler returns the type-specific handler when one is registered,
// falling back to the recipient's generic handler.
func (b *Bus) lookupHandler(msg *core.Message) core.MessageHandler {
	b.regMu.RLock()
	defer b.regMu.RUnlock()

	if byType, ok := b.typed[msg.Recipient]; ok {
		if h, ok := byType[msg.Type]; ok {
			return h
		}
	}
	if h, ok := b.agents[msg.Recipient]; ok {
		return h
	}
	return nil
}

// handleFailure either schedules a backoff redelivery or drops the message as
// permanently failed once its retries are exhausted. The re-enqueue happens
// at the tail after backoffBase*2^retryCount; delivery still only ever occurs
// on the single delivery loop.
func (b *Bus) handleFailure(ctx context.Context, msg *core.Message, cause error) {
	if msg.RetryCount >= msg.MaxRetries {
		b.metricsMu.Lock()
		b.failed++
		b.metricsMu.Unlock()
		b.logger.Warn("message permanently failed", "id", msg.ID, "recipient", msg.Recipient, "retries", msg.RetryCount, "error", cause)
		return
	}

	msg.RetryCount++
	b.metricsMu.Lock()
	b.retries++
	b.metricsMu.Unlock()

	backoff := b.backoffBase << msg.RetryCount
	time.AfterFunc(backoff, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.stopped {
			return
		}
		b.queues[msg.Recipient] = append(b.queues[msg.Recipient], msg)
	})
}

// resolvePending completes the pending response matching correlationID, if any.
func (b *Bus) resolvePending(correlationID string, value any) {
	b.pendingMu.Lock()
	p, ok := b.pending[correlationID]
	if ok {
		delete(b.pending, correlationID)
	}
	b.pendingMu.Unlock()

	if ok {
		p.resolve(value)
	}
}

// cleanupLoop periodically sweeps expired messages and stale pending
// responses. A panicking iteration is recovered and logged, and the loop
// resumes after a backoff sleep; nothing in this core is fatal to the process.
func (b *Bus) cleanupLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runCleanup(ctx)
		}
	}
}

func (b *Bus) runCleanup(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("cleanup iteration panicked", "panic", r)
			select {
			case <-ctx.Done():
			case <-time.After(b.cleanupInterval):
			}
		}
	}()

	now := time.Now()

	if removed := b.sweepExpired(now); removed > 0 {
		b.metricsMu.Lock()
		b.expired += int64(removed)
		b.metricsMu.Unlock()
		b.logger.Debug("cleanup removed expired messages", "count", removed)
	}

	b.sweepPending(now)
}

// sweepExpired drops expired messages from every queue and returns the count.
// The unlock is deferred so a panic mid-sweep never leaves the queues wedged.
func (b *Bus) sweepExpired(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for recipient, queue := range b.queues {
		live := queue[:0]
		for _, msg := range queue {
			if msg.Expired(now) {
				removed++
				continue
			}
			live = append(live, msg)
		}
		b.queues[recipient] = live
	}
	return removed
}

// sweepPending cancels resolved and stale pending responses.
func (b *Bus) sweepPending(now time.Time) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	for id, p := range b.pending {
		if p.resolved.Load() || now.Sub(p.createdAt) > b.pendingTimeout {
			p.cancel()
			delete(b.pending, id)
		}
	}
}

// Metrics returns a snapshot of bus counters, per-recipient queue depths and
// the pending-response count.
func (b *Bus) Metrics() Metrics {
	b.mu.Lock()
	sizes := make(map[string]int, len(b.queues))
	for recipient, queue := range b.queues {
		sizes[recipient] = len(queue)
	}
	b.mu.Unlock()

	b.pendingMu.Lock()
	pendingCount := len(b.pending)
	b.pendingMu.Unlock()

	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()

	return Metrics{
		Sent:             b.sent,
		Delivered:        b.delivered,
		Failed:           b.failed,
		Expired:          b.expired,
		Duplicates:       b.duplicates,
		Retries:          b.retries,
		AvgDeliveryTime:  b.avgDelivery,
		QueueSizes:       sizes,
		PendingResponses: pendingCount,
	}
}

// QueueSize returns the current depth of one recipient's queue.
func (b *Bus) QueueSize(recipient string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[recipient])
}
