package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PersistenceObserver records every processed webhook in the events table.
// Writes are best-effort: a storage failure is logged, never propagated,
// so it cannot block event handling.
type PersistenceObserver struct {
	repo ports.WebhookEventRepository
	log  zerolog.Logger
}

// NewPersistenceObserver creates a webhook recording observer.
func NewPersistenceObserver(repo ports.WebhookEventRepository, log zerolog.Logger) *PersistenceObserver {
	return &PersistenceObserver{repo: repo, log: log}
}

// WebhookReceived implements ports.WebhookObserver.
func (o *PersistenceObserver) WebhookReceived(ctx context.Context, payload domain.WebhookPayload) {
	data, err := json.Marshal(payload.Data)
	if err != nil {
		o.log.Warn().Err(err).Str("event", payload.Event).Msg("marshaling webhook payload for storage")
		return
	}

	event := &domain.WebhookEvent{
		ID:           uuid.New(),
		Event:        payload.Event,
		InstanceName: payload.InstanceName,
		Payload:      string(data),
		ReceivedAt:   time.Now().UTC(),
	}
	if err := o.repo.Create(ctx, event); err != nil {
		o.log.Warn().Err(err).Str("event", payload.Event).Msg("storing webhook event")
	}
}
