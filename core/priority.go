package core

// Priority orders messages within a recipient queue and breaks ties between
// tasks selected into the same scheduling round. Higher values are delivered
// and scheduled first; equal priorities preserve insertion order.
type Priority int

const (
	// PriorityLow marks background traffic that may wait behind everything else.
	PriorityLow Priority = iota
	// PriorityMedium is the default for routine inter-agent traffic.
	PriorityMedium
	// PriorityHigh marks traffic that should preempt routine work.
	PriorityHigh
	// PriorityCritical marks urgent signals; messages at this level default to
	// a much shorter TTL so stale urgency is dropped rather than delivered late.
	PriorityCritical
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MessageType identifies the kind of inter-agent message.
type MessageType string

const (
	// TypeTaskRequest asks the recipient agent to perform work.
	TypeTaskRequest MessageType = "task_request"
	// TypeTaskResponse carries the outcome of a previously requested task and
	// resolves the pending request via its correlation id.
	TypeTaskResponse MessageType = "task_response"
	// TypeStatusUpdate notifies subscribers of an agent state change.
	TypeStatusUpdate MessageType = "status_update"
	// TypeInsight broadcasts an analysis result to interested agents.
	TypeInsight MessageType = "insight"
	// TypeSignal carries a lightweight control signal between agents.
	TypeSignal MessageType = "signal"
	// TypeError reports a failure observed by the sending agent.
	TypeError MessageType = "error"
)
