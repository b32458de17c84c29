package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FailedMessageRepo implements ports.FailedMessageRepository.
type FailedMessageRepo struct {
	pool Pool
}

// NewFailedMessageRepo creates a new FailedMessageRepo.
func NewFailedMessageRepo(pool Pool) *FailedMessageRepo {
	return &FailedMessageRepo{pool: pool}
}

// RecordFailure inserts a failure record, or bumps the retry counter of the
// existing record for the same message content. The conflict target matches
// the unique index on (instance_name, recipient, message_type, md5(payload)).
func (r *FailedMessageRepo) RecordFailure(ctx context.Context, fm *domain.FailedMessage) error {
	query := `INSERT INTO failed_messages
		(id, instance_name, recipient, message_type, payload, retry_count, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (instance_name, recipient, message_type, md5(payload))
		DO UPDATE SET retry_count = failed_messages.retry_count + 1,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		fm.ID, fm.InstanceName, fm.Recipient, fm.MessageType,
		fm.Payload, fm.RetryCount, fm.LastError, fm.CreatedAt, fm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record failed message: %w", err)
	}
	return nil
}

// DeleteByContent removes the record matching the message content, if any.
func (r *FailedMessageRepo) DeleteByContent(ctx context.Context, fm *domain.FailedMessage) error {
	query := `DELETE FROM failed_messages
		WHERE instance_name = $1 AND recipient = $2 AND message_type = $3 AND md5(payload) = md5($4)`

	_, err := r.pool.Exec(ctx, query, fm.InstanceName, fm.Recipient, fm.MessageType, fm.Payload)
	if err != nil {
		return fmt.Errorf("delete failed message: %w", err)
	}
	return nil
}

// GetByID fetches a failed message by UUID.
func (r *FailedMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FailedMessage, error) {
	query := `SELECT id, instance_name, recipient, message_type, payload, retry_count, last_error, created_at, updated_at
		FROM failed_messages WHERE id = $1`

	return r.scanFailedMessage(r.pool.QueryRow(ctx, query, id))
}

// List fetches retry candidates, oldest first.
func (r *FailedMessageRepo) List(ctx context.Context, params ports.FailedMessageListParams) ([]domain.FailedMessage, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("retry_count < $%d", argIdx))
	args = append(args, params.MaxRetries)
	argIdx++

	if params.InstanceName != "" {
		conditions = append(conditions, fmt.Sprintf("instance_name = $%d", argIdx))
		args = append(args, params.InstanceName)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT id, instance_name, recipient, message_type, payload, retry_count, last_error, created_at, updated_at
		FROM failed_messages WHERE %s ORDER BY created_at ASC`, strings.Join(conditions, " AND "))

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, params.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failed messages: %w", err)
	}
	defer rows.Close()

	var result []domain.FailedMessage
	for rows.Next() {
		fm := domain.FailedMessage{}
		err := rows.Scan(
			&fm.ID, &fm.InstanceName, &fm.Recipient, &fm.MessageType,
			&fm.Payload, &fm.RetryCount, &fm.LastError, &fm.CreatedAt, &fm.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed message row: %w", err)
		}
		result = append(result, fm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed message rows: %w", err)
	}
	return result, nil
}

// DeleteOlderThan removes records created before cutoff.
func (r *FailedMessageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM failed_messages WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune failed messages: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountOlderThan counts records created before cutoff.
func (r *FailedMessageRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM failed_messages WHERE created_at < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed messages: %w", err)
	}
	return count, nil
}

// scanFailedMessage is a helper to scan a single row into a FailedMessage.
func (r *FailedMessageRepo) scanFailedMessage(row pgx.Row) (*domain.FailedMessage, error) {
	fm := &domain.FailedMessage{}
	err := row.Scan(
		&fm.ID, &fm.InstanceName, &fm.Recipient, &fm.MessageType,
		&fm.Payload, &fm.RetryCount, &fm.LastError, &fm.CreatedAt, &fm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan failed message: %w", err)
	}
	return fm, nil
}
