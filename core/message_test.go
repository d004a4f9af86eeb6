package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMessage_Defaults(t *testing.T) {
	msg := NewMessage("risk", "portfolio", TypeInsight, map[string]any{"score": 0.8})

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "risk", msg.Sender)
	assert.Equal(t, "portfolio", msg.Recipient)
	assert.Equal(t, PriorityMedium, msg.Priority)
	assert.Equal(t, 3, msg.MaxRetries)
	assert.Equal(t, DefaultMessageTTL, msg.ExpiresAt.Sub(msg.CreatedAt))
}

func TestNewMessage_CriticalTTL(t *testing.T) {
	msg := NewMessage("risk", "portfolio", TypeSignal, nil, func(o *MessageOptions) {
		o.Priority = PriorityCritical
	})
	assert.Equal(t, CriticalMessageTTL, msg.ExpiresAt.Sub(msg.CreatedAt))
}

func TestNewMessage_ExplicitTTLOverride(t *testing.T) {
	msg := NewMessage("a", "b", TypeSignal, nil, func(o *MessageOptions) {
		o.Priority = PriorityCritical
		o.TTL = 5 * time.Second
	})
	assert.Equal(t, 5*time.Second, msg.ExpiresAt.Sub(msg.CreatedAt))
}

func TestMessage_Expired(t *testing.T) {
	msg := NewMessage("a", "b", TypeSignal, nil, func(o *MessageOptions) {
		o.TTL = time.Second
	})
	assert.False(t, msg.Expired(msg.CreatedAt))
	assert.True(t, msg.Expired(msg.CreatedAt.Add(2*time.Second)))
}

func TestMessage_DedupSignature(t *testing.T) {
	payload := map[string]any{"ticker": "ACME", "window": 30}

	m1 := NewMessage("risk", "portfolio", TypeInsight, payload)
	m2 := NewMessage("risk", "portfolio", TypeInsight, map[string]any{"window": 30, "ticker": "ACME"})

	// Identity is structural: distinct IDs and timestamps, same signature,
	// insensitive to payload key order.
	assert.NotEqual(t, m1.ID, m2.ID)
	assert.Equal(t, m1.DedupSignature(), m2.DedupSignature())

	m3 := NewMessage("risk", "portfolio", TypeInsight, map[string]any{"ticker": "ACME", "window": 31})
	assert.NotEqual(t, m1.DedupSignature(), m3.DedupSignature())

	m4 := NewMessage("news", "portfolio", TypeInsight, payload)
	assert.NotEqual(t, m1.DedupSignature(), m4.DedupSignature())
}

func TestPriority_String(t *testing.T) {
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "critical", PriorityCritical.String())
	assert.Equal(t, "unknown", Priority(99).String())
}
