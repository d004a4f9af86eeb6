package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMessageTTL bounds the queue lifetime of all non-critical messages.
	DefaultMessageTTL = 300 * time.Second
	// CriticalMessageTTL bounds the queue lifetime of PriorityCritical
	// messages; urgency that cannot be delivered quickly is worthless.
	CriticalMessageTTL = 30 * time.Second
)

// Message is the unit of inter-agent communication. It lives in the
// recipient's queue until delivered, expired, or exhausted of retries.
// Messages are not mutated after send except for the RetryCount, which only
// the bus delivery loop touches.
type Message struct {
	ID            string         `json:"id"`
	Sender        string         `json:"sender"`
	Recipient     string         `json:"recipient"`
	Type          MessageType    `json:"type"`
	Priority      Priority       `json:"priority"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	RetryCount    int            `json:"retry_count"`
	MaxRetries    int            `json:"max_retries"`
}

// MessageOptions configures optional Message fields at construction time.
type MessageOptions struct {
	// Priority defaults to PriorityMedium.
	Priority Priority
	// TTL overrides the priority-derived default queue lifetime.
	// The zero value selects the default; see NewMessage.
	TTL time.Duration
	// CorrelationID links this message to a pending request.
	CorrelationID string
	// MaxRetries bounds redelivery attempts after handler failures. Defaults to 3.
	MaxRetries int
}

// NewMessage builds a message with a fresh uuid, creation timestamp and the
// TTL policy applied: PriorityCritical messages expire after 30s, everything
// else after 300s, unless an explicit TTL is provided.
func NewMessage(sender, recipient string, msgType MessageType, payload map[string]any, optFns ...func(o *MessageOptions)) *Message {
	opts := MessageOptions{
		Priority:   PriorityMedium,
		MaxRetries: 3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	ttl := opts.TTL
	if ttl == 0 {
		if opts.Priority == PriorityCritical {
			ttl = CriticalMessageTTL
		} else {
			ttl = DefaultMessageTTL
		}
	}

	now := time.Now()

	return &Message{
		ID:            uuid.NewString(),
		Sender:        sender,
		Recipient:     recipient,
		Type:          msgType,
		Priority:      opts.Priority,
		Payload:       payload,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		CorrelationID: opts.CorrelationID,
		MaxRetries:    opts.MaxRetries,
	}
}

// Expired reports whether the message's queue lifetime has elapsed at now.
func (m *Message) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}

// DedupSignature returns the structural identity of the message used by the
// bus to suppress duplicate sends: sender, recipient, type and a hash of the
// payload. Two messages with equal signatures are considered the same logical
// send regardless of their IDs or timestamps.
func (m *Message) DedupSignature() string {
	return fmt.Sprintf("%s|%s|%s|%s", m.Sender, m.Recipient, m.Type, hashPayload(m.Payload))
}

// hashPayload produces a stable hex digest of the payload. encoding/json
// marshals map keys in sorted order, making the digest deterministic for
// structurally equal payloads.
func hashPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return "empty"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Unmarshalable payloads (channels, funcs) fall back to the length;
		// dedup then degrades to best effort instead of failing the send.
		return fmt.Sprintf("unhashable:%d", len(payload))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
