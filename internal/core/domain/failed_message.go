package domain

import (
	"time"

	"github.com/google/uuid"
)

// FailedMessage is the persisted record of a message whose delivery failed.
// Created on the first failed attempt, updated on each subsequent failure,
// deleted when a retry eventually succeeds or when pruned by age.
type FailedMessage struct {
	ID           uuid.UUID   `json:"id"`
	InstanceName string      `json:"instance_name"`
	Recipient    string      `json:"recipient"`
	MessageType  MessageType `json:"message_type"`
	Payload      string      `json:"payload"` // JSON string of the message body
	RetryCount   int         `json:"retry_count"`
	LastError    string      `json:"last_error"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CanRetry reports whether the record is still below the retry cap.
func (f *FailedMessage) CanRetry(cap int) bool {
	return f.RetryCount < cap
}
