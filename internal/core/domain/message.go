package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType identifies which Evolution API send endpoint a message targets.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeMedia    MessageType = "media"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeLocation MessageType = "location"
)

// Valid reports whether t is a recognized message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeMedia, MessageTypeAudio, MessageTypeLocation:
		return true
	}
	return false
}

// MessageStatus represents the lifecycle state of an outbound send.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "PENDING"
	MessageStatusSending   MessageStatus = "SENDING"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusFailed    MessageStatus = "FAILED"
	MessageStatusExhausted MessageStatus = "EXHAUSTED"
)

// OutboundMessage is one message send request. Message holds the raw
// Evolution API body for the type's endpoint (e.g. {"number": ..., "text": ...}).
// Connection optionally names a configured Evolution server; empty means
// the primary one.
type OutboundMessage struct {
	InstanceName string         `json:"instance_name"`
	Type         MessageType    `json:"message_type"`
	Message      map[string]any `json:"message"`
	Connection   string         `json:"connection,omitempty"`
}

// Recipient extracts the destination number from the message body.
// Every Evolution send endpoint addresses the target via "number".
func (m OutboundMessage) Recipient() string {
	if n, ok := m.Message["number"].(string); ok {
		return n
	}
	return ""
}

// MessageLog records the outcome of one send attempt, trimmed by the
// prune command.
type MessageLog struct {
	ID           uuid.UUID     `json:"id"`
	InstanceName string        `json:"instance_name"`
	Recipient    string        `json:"recipient"`
	MessageType  MessageType   `json:"message_type"`
	Status       MessageStatus `json:"status"`
	Payload      string        `json:"payload"` // JSON string
	Response     *string       `json:"response,omitempty"`
	LastError    *string       `json:"last_error,omitempty"`
	Attempt      int           `json:"attempt"`
	CreatedAt    time.Time     `json:"created_at"`
}
