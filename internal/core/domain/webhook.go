package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookPayload is the normalized form of an inbound Evolution webhook.
// InstanceName is the first non-empty of the raw payload's "instance" and
// "instanceName" fields.
type WebhookPayload struct {
	Event        string         `json:"event"`
	InstanceName string         `json:"instanceName,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// WebhookEvent is the persisted record of a processed webhook, kept for
// auditing and trimmed by the prune command.
type WebhookEvent struct {
	ID           uuid.UUID `json:"id"`
	Event        string    `json:"event"`
	InstanceName string    `json:"instance_name"`
	Payload      string    `json:"payload"` // JSON string
	ReceivedAt   time.Time `json:"received_at"`
}

// Well-known Evolution API event names. Inbound payloads may carry any
// event string; events without a registered handler are accepted and dropped.
const (
	EventMessagesUpsert   = "messages.upsert"
	EventMessagesUpdate   = "messages.update"
	EventConnectionUpdate = "connection.update"
	EventQRCodeUpdated    = "qrcode.updated"
	EventSendMessage      = "send.message"
)
