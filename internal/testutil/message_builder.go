package testutil

import (
	"time"

	"github.com/agentcore-dev/agentcore/core"
)

// MessageBuilder helps construct messages with fluent chaining for tests.
// Example:
//
//	msg := NewMessageBuilder("risk", "portfolio").Type(core.TypeInsight).Priority(core.PriorityHigh).Build()
type MessageBuilder struct {
	sender    string
	recipient string
	msgType   core.MessageType
	payload   map[string]any
	priority  core.Priority
	ttl       time.Duration
	corrID    string
}

// NewMessageBuilder creates a builder for a message from sender to recipient.
// Defaults to a medium-priority status update with an empty payload.
func NewMessageBuilder(sender, recipient string) *MessageBuilder {
	return &MessageBuilder{
		sender:    sender,
		recipient: recipient,
		msgType:   core.TypeStatusUpdate,
		priority:  core.PriorityMedium,
	}
}

// Type sets the message type (chainable).
func (b *MessageBuilder) Type(t core.MessageType) *MessageBuilder { b.msgType = t; return b }

// Payload sets or overwrites a payload key/value pair (chainable).
func (b *MessageBuilder) Payload(key string, val any) *MessageBuilder {
	if b.payload == nil {
		b.payload = map[string]any{}
	}
	b.payload[key] = val
	return b
}

// Priority sets the delivery priority (chainable).
func (b *MessageBuilder) Priority(p core.Priority) *MessageBuilder { b.priority = p; return b }

// TTL overrides the priority-derived message lifetime (chainable).
func (b *MessageBuilder) TTL(d time.Duration) *MessageBuilder { b.ttl = d; return b }

// Correlation sets the correlation ID tying a response to its request (chainable).
func (b *MessageBuilder) Correlation(id string) *MessageBuilder { b.corrID = id; return b }

// Build produces the message.
func (b *MessageBuilder) Build() *core.Message {
	return core.NewMessage(b.sender, b.recipient, b.msgType, b.payload, func(o *core.MessageOptions) {
		o.Priority = b.priority
		if b.ttl > 0 {
			o.TTL = b.ttl
		}
		if b.corrID != "" {
			o.CorrelationID = b.corrID
		}
	})
}
