package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/rs/zerolog"
)

// MaintenanceServiceImpl implements ports.MaintenanceService.
type MaintenanceServiceImpl struct {
	logRepo    ports.MessageLogRepository
	failedRepo ports.FailedMessageRepository
	eventRepo  ports.WebhookEventRepository
	messages   ports.MessageService
	log        zerolog.Logger
}

// NewMaintenanceService creates a MaintenanceServiceImpl.
func NewMaintenanceService(
	logRepo ports.MessageLogRepository,
	failedRepo ports.FailedMessageRepository,
	eventRepo ports.WebhookEventRepository,
	messages ports.MessageService,
	log zerolog.Logger,
) *MaintenanceServiceImpl {
	return &MaintenanceServiceImpl{
		logRepo:    logRepo,
		failedRepo: failedRepo,
		eventRepo:  eventRepo,
		messages:   messages,
		log:        log,
	}
}

// Prune deletes aged rows. Selecting neither table prunes both. With
// DryRun set it only counts what would go.
func (s *MaintenanceServiceImpl) Prune(ctx context.Context, opts ports.PruneOptions) (*ports.PruneResult, error) {
	if opts.OlderThan <= 0 {
		return nil, fmt.Errorf("prune window must be positive")
	}

	messages, webhooks := opts.Messages, opts.Webhooks
	if !messages && !webhooks {
		messages, webhooks = true, true
	}

	cutoff := time.Now().UTC().Add(-opts.OlderThan)
	result := &ports.PruneResult{}

	if messages {
		n, err := s.affect(ctx, s.logRepo.CountOlderThan, s.logRepo.DeleteOlderThan, cutoff, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("pruning message logs: %w", err)
		}
		result.MessageLogs = n

		n, err = s.affect(ctx, s.failedRepo.CountOlderThan, s.failedRepo.DeleteOlderThan, cutoff, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("pruning failed messages: %w", err)
		}
		result.FailedMessages = n
	}

	if webhooks {
		n, err := s.affect(ctx, s.eventRepo.CountOlderThan, s.eventRepo.DeleteOlderThan, cutoff, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("pruning webhook events: %w", err)
		}
		result.WebhookEvents = n
	}

	s.log.Info().
		Time("cutoff", cutoff).
		Bool("dry_run", opts.DryRun).
		Int64("message_logs", result.MessageLogs).
		Int64("failed_messages", result.FailedMessages).
		Int64("webhook_events", result.WebhookEvents).
		Msg("prune completed")

	return result, nil
}

type rowsFunc func(ctx context.Context, cutoff time.Time) (int64, error)

func (s *MaintenanceServiceImpl) affect(ctx context.Context, count, del rowsFunc, cutoff time.Time, dryRun bool) (int64, error) {
	if dryRun {
		return count(ctx, cutoff)
	}
	return del(ctx, cutoff)
}

// Retry re-dispatches failed messages that still have attempt budget.
func (s *MaintenanceServiceImpl) Retry(ctx context.Context, opts ports.RetryOptions) (*ports.RetryResult, error) {
	if opts.MaxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}

	records, err := s.failedRepo.List(ctx, ports.FailedMessageListParams{
		InstanceName: opts.InstanceName,
		MaxRetries:   opts.MaxRetries,
		Limit:        opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing failed messages: %w", err)
	}

	result := &ports.RetryResult{Scanned: len(records)}
	if opts.DryRun {
		return result, nil
	}

	for _, rec := range records {
		var body map[string]any
		if err := json.Unmarshal([]byte(rec.Payload), &body); err != nil {
			s.log.Warn().Err(err).Str("id", rec.ID.String()).Msg("failed message payload is not valid JSON, skipping")
			continue
		}

		msg := domain.OutboundMessage{
			InstanceName: rec.InstanceName,
			Type:         rec.MessageType,
			Message:      body,
		}
		if _, err := s.messages.Dispatch(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("id", rec.ID.String()).Msg("re-dispatching failed message")
			continue
		}
		result.Enqueued++
	}

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("enqueued", result.Enqueued).
		Msg("retry completed")

	return result, nil
}
