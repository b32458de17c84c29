package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/metrics"
	"github.com/lynkbyte/evolution-bridge/pkg/apperror"

	"github.com/rs/zerolog"
)

// WebhookServiceImpl implements ports.WebhookService.
//
// Dispatch hands payloads to the job queue when one is configured. If the
// queue rejects the job the webhook is processed synchronously instead, so
// a broker outage degrades latency but never drops events.
type WebhookServiceImpl struct {
	queue     ports.JobQueue // nil disables queueing
	queueName string
	maxTries  int
	observers []ports.WebhookObserver
	handlers  map[string]ports.WebhookHandlerFunc
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewWebhookService creates a WebhookServiceImpl. Pass a nil queue to
// process every webhook synchronously.
func NewWebhookService(
	queue ports.JobQueue,
	queueName string,
	maxTries int,
	m *metrics.Metrics,
	log zerolog.Logger,
) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		queue:     queue,
		queueName: queueName,
		maxTries:  maxTries,
		handlers:  make(map[string]ports.WebhookHandlerFunc),
		metrics:   m,
		log:       log,
	}
}

// RegisterHandler routes an event name to a handler. A later registration
// for the same event replaces the earlier one.
func (s *WebhookServiceImpl) RegisterHandler(event string, fn ports.WebhookHandlerFunc) {
	s.handlers[event] = fn
}

// RegisterObserver adds an observer notified once per processed webhook.
func (s *WebhookServiceImpl) RegisterObserver(obs ports.WebhookObserver) {
	s.observers = append(s.observers, obs)
}

// Dispatch normalizes the raw payload and either queues it or processes it
// in the caller's goroutine.
func (s *WebhookServiceImpl) Dispatch(ctx context.Context, raw map[string]any, instanceHint string) (ports.WebhookOutcome, error) {
	if len(raw) == 0 {
		return "", apperror.ErrInvalidPayload()
	}

	// The URL segment only fills in when the body names no instance at all.
	if instanceHint != "" {
		_, hasInstance := raw["instance"]
		_, hasInstanceName := raw["instanceName"]
		if !hasInstance && !hasInstanceName {
			raw["instance"] = instanceHint
		}
	}

	payload, err := normalizePayload(raw)
	if err != nil {
		return "", err
	}

	s.metrics.WebhooksReceived.WithLabelValues(payload.Event).Inc()

	if s.queue != nil {
		outcome, queued := s.tryEnqueue(ctx, payload)
		if queued {
			return outcome, nil
		}
	}

	if err := s.Process(ctx, payload); err != nil {
		return "", err
	}
	return ports.OutcomeProcessed, nil
}

// tryEnqueue attempts to queue the payload. A false return means the
// caller must process synchronously.
func (s *WebhookServiceImpl) tryEnqueue(ctx context.Context, payload domain.WebhookPayload) (ports.WebhookOutcome, bool) {
	job, err := domain.NewJob(domain.JobKindWebhookProcess, s.queueName, payload, s.maxTries)
	if err == nil {
		err = s.queue.Enqueue(ctx, job)
		if err == nil {
			s.log.Debug().
				Str("event", payload.Event).
				Str("instance", payload.InstanceName).
				Str("job_id", job.ID).
				Msg("webhook queued")
			return ports.OutcomeQueued, true
		}
	}

	s.metrics.QueueFallbacks.Inc()
	s.log.Warn().Err(err).
		Str("event", payload.Event).
		Msg("enqueue failed, processing webhook synchronously")

	return "", false
}

// Process notifies observers and runs the handler registered for the
// payload's event. Events without a handler are accepted and dropped.
func (s *WebhookServiceImpl) Process(ctx context.Context, payload domain.WebhookPayload) error {
	for _, obs := range s.observers {
		obs.WebhookReceived(ctx, payload)
	}

	handler, ok := s.handlers[payload.Event]
	if !ok {
		s.log.Debug().
			Str("event", payload.Event).
			Str("instance", payload.InstanceName).
			Msg("no handler registered for event")
		return nil
	}

	if err := handler(ctx, payload); err != nil {
		s.metrics.WebhooksFailed.WithLabelValues(payload.Event).Inc()
		s.log.Error().Err(err).
			Str("event", payload.Event).
			Str("instance", payload.InstanceName).
			Msg("webhook handler failed")
		return apperror.ErrProcessingFailure(err)
	}

	s.log.Info().
		Str("event", payload.Event).
		Str("instance", payload.InstanceName).
		Msg("webhook processed")

	return nil
}

// RunJob executes a queued webhook envelope.
func (s *WebhookServiceImpl) RunJob(ctx context.Context, job domain.Job) error {
	var payload domain.WebhookPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: decoding webhook payload: %v", ErrUnretryable, err)
	}
	return s.Process(ctx, payload)
}

// normalizePayload extracts the event name and instance from a raw webhook
// body. The instance may arrive under "instance" or "instanceName".
func normalizePayload(raw map[string]any) (domain.WebhookPayload, error) {
	event, _ := raw["event"].(string)
	if event == "" {
		return domain.WebhookPayload{}, apperror.ErrInvalidPayload()
	}

	instance, _ := raw["instance"].(string)
	if instance == "" {
		instance, _ = raw["instanceName"].(string)
	}

	return domain.WebhookPayload{
		Event:        event,
		InstanceName: instance,
		Data:         raw,
	}, nil
}
