package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// InstanceRepo implements ports.InstanceRepository.
type InstanceRepo struct {
	pool Pool
}

// NewInstanceRepo creates a new InstanceRepo.
func NewInstanceRepo(pool Pool) *InstanceRepo {
	return &InstanceRepo{pool: pool}
}

// Upsert inserts or refreshes an instance row by name. The RETURNING clause
// reports whether the row was newly inserted (xmax = 0 only on insert).
func (r *InstanceRepo) Upsert(ctx context.Context, instance *domain.Instance) (bool, error) {
	query := `INSERT INTO instances (id, name, connection_state, owner_jid, profile_name, synced_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name)
		DO UPDATE SET connection_state = EXCLUDED.connection_state,
			owner_jid = EXCLUDED.owner_jid,
			profile_name = EXCLUDED.profile_name,
			synced_at = EXCLUDED.synced_at
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		instance.ID, instance.Name, instance.ConnectionState,
		instance.OwnerJID, instance.ProfileName, instance.SyncedAt, instance.CreatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert instance: %w", err)
	}
	return inserted, nil
}

// GetByName fetches an instance by its unique name.
func (r *InstanceRepo) GetByName(ctx context.Context, name string) (*domain.Instance, error) {
	query := `SELECT id, name, connection_state, owner_jid, profile_name, synced_at, created_at
		FROM instances WHERE name = $1`

	inst := &domain.Instance{}
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&inst.ID, &inst.Name, &inst.ConnectionState,
		&inst.OwnerJID, &inst.ProfileName, &inst.SyncedAt, &inst.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return inst, nil
}

// List fetches all cached instances ordered by name.
func (r *InstanceRepo) List(ctx context.Context) ([]domain.Instance, error) {
	query := `SELECT id, name, connection_state, owner_jid, profile_name, synced_at, created_at
		FROM instances ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []domain.Instance
	for rows.Next() {
		inst := domain.Instance{}
		err := rows.Scan(
			&inst.ID, &inst.Name, &inst.ConnectionState,
			&inst.OwnerJID, &inst.ProfileName, &inst.SyncedAt, &inst.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan instance row: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instance rows: %w", err)
	}
	return instances, nil
}
