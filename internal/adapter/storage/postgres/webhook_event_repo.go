package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
)

// WebhookEventRepo implements ports.WebhookEventRepository.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Create inserts one processed webhook record.
func (r *WebhookEventRepo) Create(ctx context.Context, event *domain.WebhookEvent) error {
	query := `INSERT INTO webhook_events (id, event, instance_name, payload, received_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		event.ID, event.Event, event.InstanceName, event.Payload, event.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}

// DeleteOlderThan removes events received before cutoff.
func (r *WebhookEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhook_events WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune webhook events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountOlderThan counts events received before cutoff.
func (r *WebhookEventRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_events WHERE received_at < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count webhook events: %w", err)
	}
	return count, nil
}
