package ports

import (
	"context"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	"github.com/google/uuid"
)

// FailedMessageRepository defines persistence for failed outbound messages.
// Records are keyed by message content (instance, recipient, type, payload)
// so that repeated failures of the same message accumulate on one row.
type FailedMessageRepository interface {
	// RecordFailure inserts a record for the message or, when one already
	// exists for the same content, increments its retry count and refreshes
	// the last error.
	RecordFailure(ctx context.Context, fm *domain.FailedMessage) error
	// DeleteByContent removes the record matching the message content,
	// called when a retry eventually succeeds.
	DeleteByContent(ctx context.Context, fm *domain.FailedMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FailedMessage, error)
	List(ctx context.Context, params FailedMessageListParams) ([]domain.FailedMessage, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// FailedMessageListParams filters candidates for the retry command.
type FailedMessageListParams struct {
	InstanceName string // empty = all instances
	MaxRetries   int    // only rows with retry_count below this
	Limit        int    // 0 = no limit
}

// MessageLogRepository defines persistence for send attempt outcomes.
type MessageLogRepository interface {
	Create(ctx context.Context, log *domain.MessageLog) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// WebhookEventRepository defines persistence for processed webhook records.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *domain.WebhookEvent) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// InstanceRepository defines persistence for the local instance cache.
type InstanceRepository interface {
	// Upsert inserts or refreshes an instance row by name.
	// Returns true when a new row was created.
	Upsert(ctx context.Context, instance *domain.Instance) (bool, error)
	GetByName(ctx context.Context, name string) (*domain.Instance, error)
	List(ctx context.Context) ([]domain.Instance, error)
}
