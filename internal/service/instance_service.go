package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InstanceServiceImpl implements ports.InstanceService.
type InstanceServiceImpl struct {
	client ports.EvolutionClient
	repo   ports.InstanceRepository
	log    zerolog.Logger
}

// NewInstanceService creates an InstanceServiceImpl.
func NewInstanceService(client ports.EvolutionClient, repo ports.InstanceRepository, log zerolog.Logger) *InstanceServiceImpl {
	return &InstanceServiceImpl{
		client: client,
		repo:   repo,
		log:    log,
	}
}

// List returns the live instance list from the API server.
func (s *InstanceServiceImpl) List(ctx context.Context) ([]ports.InstanceInfo, error) {
	infos, err := s.client.FetchInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching instances: %w", err)
	}
	return infos, nil
}

// Sync reconciles the local instance cache with the server.
func (s *InstanceServiceImpl) Sync(ctx context.Context) (*ports.SyncResult, error) {
	infos, err := s.client.FetchInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching instances: %w", err)
	}

	result := &ports.SyncResult{Fetched: len(infos)}
	now := time.Now().UTC()

	for _, info := range infos {
		if info.Name == "" {
			continue
		}

		instance := &domain.Instance{
			ID:              uuid.New(),
			Name:            info.Name,
			ConnectionState: info.ConnectionState,
			SyncedAt:        now,
		}
		if info.OwnerJID != "" {
			owner := info.OwnerJID
			instance.OwnerJID = &owner
		}
		if info.ProfileName != "" {
			profile := info.ProfileName
			instance.ProfileName = &profile
		}

		created, err := s.repo.Upsert(ctx, instance)
		if err != nil {
			return nil, fmt.Errorf("upserting instance %s: %w", info.Name, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.log.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("instances synced")

	return result, nil
}

// Connect requests pairing material for an instance.
func (s *InstanceServiceImpl) Connect(ctx context.Context, name string) (*ports.ConnectResult, error) {
	if name == "" {
		return nil, fmt.Errorf("instance name is required")
	}

	result, err := s.client.ConnectInstance(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("connecting instance %s: %w", name, err)
	}

	s.log.Info().Str("instance", name).Msg("connect requested")
	return result, nil
}

// Disconnect logs an instance out and marks the cached row closed.
func (s *InstanceServiceImpl) Disconnect(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("instance name is required")
	}

	if err := s.client.DisconnectInstance(ctx, name); err != nil {
		return fmt.Errorf("disconnecting instance %s: %w", name, err)
	}

	instance := &domain.Instance{
		ID:              uuid.New(),
		Name:            name,
		ConnectionState: domain.ConnectionStateClosed,
		SyncedAt:        time.Now().UTC(),
	}
	if _, err := s.repo.Upsert(ctx, instance); err != nil {
		s.log.Warn().Err(err).Str("instance", name).Msg("updating cached instance state")
	}

	s.log.Info().Str("instance", name).Msg("instance disconnected")
	return nil
}
