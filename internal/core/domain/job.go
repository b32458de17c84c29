package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job kinds routed by the queue worker.
const (
	JobKindWebhookProcess = "webhook.process"
	JobKindMessageSend    = "message.send"
)

// Job is the envelope carried through the queue. Payload is the JSON
// encoding of the kind-specific body (WebhookPayload or OutboundMessage).
// Attempt counts executions and starts at 1 for the first run.
type Job struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

// NewJob builds a first-attempt envelope for the given kind and body.
func NewJob(kind, queue string, body any, maxAttempts int) (Job, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:          uuid.New().String(),
		Kind:        kind,
		Queue:       queue,
		Payload:     payload,
		Attempt:     1,
		MaxAttempts: maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}, nil
}

// LastAttempt reports whether this execution is the job's final one.
func (j Job) LastAttempt() bool {
	return j.Attempt >= j.MaxAttempts
}
