package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
)

// MessageLogRepo implements ports.MessageLogRepository.
type MessageLogRepo struct {
	pool Pool
}

// NewMessageLogRepo creates a new MessageLogRepo.
func NewMessageLogRepo(pool Pool) *MessageLogRepo {
	return &MessageLogRepo{pool: pool}
}

// Create inserts one send attempt outcome.
func (r *MessageLogRepo) Create(ctx context.Context, log *domain.MessageLog) error {
	query := `INSERT INTO message_logs
		(id, instance_name, recipient, message_type, status, payload, response, last_error, attempt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.InstanceName, log.Recipient, log.MessageType, log.Status,
		log.Payload, log.Response, log.LastError, log.Attempt, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message log: %w", err)
	}
	return nil
}

// DeleteOlderThan removes logs created before cutoff.
func (r *MessageLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM message_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune message logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountOlderThan counts logs created before cutoff.
func (r *MessageLogRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM message_logs WHERE created_at < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count message logs: %w", err)
	}
	return count, nil
}
