package service

import (
	"context"
	"errors"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/metrics"

	"github.com/rs/zerolog"
)

// ErrUnretryable marks job failures that must not be rescheduled.
// Wrap it with fmt.Errorf("%w: ...", ErrUnretryable) and the worker will
// drop the job after acknowledging it.
var ErrUnretryable = errors.New("unretryable job failure")

// Worker drains the job queue and routes envelopes to their handlers.
//
// A failed job is rescheduled with a growing delay until its attempt
// budget runs out: the delay for attempt n is backoff[n-1], clamped to the
// last entry when attempts outnumber configured delays.
type Worker struct {
	consumer     ports.JobConsumer
	queue        ports.JobQueue
	handlers     map[string]ports.JobHandler
	backoff      []time.Duration
	pollInterval time.Duration
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

// NewWorker creates a worker bound to one consumer and its queue.
func NewWorker(
	consumer ports.JobConsumer,
	queue ports.JobQueue,
	backoff []time.Duration,
	pollInterval time.Duration,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		consumer:     consumer,
		queue:        queue,
		handlers:     make(map[string]ports.JobHandler),
		backoff:      backoff,
		pollInterval: pollInterval,
		metrics:      m,
		log:          log.With().Str("component", "worker").Logger(),
	}
}

// Register routes a job kind to its handler.
func (w *Worker) Register(kind string, handler ports.JobHandler) {
	w.handlers[kind] = handler
}

// Run processes jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped")
			return ctx.Err()
		default:
		}

		processed, err := w.runOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("worker stopped")
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			processed = false
		}

		if !processed {
			select {
			case <-ctx.Done():
				w.log.Info().Msg("worker stopped")
				return ctx.Err()
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// runOnce pulls and handles at most one job. It reports whether a job was
// processed so the caller knows when to back off polling.
func (w *Worker) runOnce(ctx context.Context) (bool, error) {
	job, err := w.consumer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	w.handle(ctx, *job)
	return true, nil
}

func (w *Worker) handle(ctx context.Context, job domain.Job) {
	logger := w.log.With().
		Str("job_id", job.ID).
		Str("kind", job.Kind).
		Int("attempt", job.Attempt).
		Int("max_attempts", job.MaxAttempts).
		Logger()

	handler, ok := w.handlers[job.Kind]
	if !ok {
		logger.Error().Msg("no handler for job kind, dropping job")
		w.metrics.JobsProcessed.WithLabelValues(job.Kind, "dropped").Inc()
		w.ack(ctx, job, logger)
		return
	}

	err := handler(ctx, job)
	switch {
	case err == nil:
		w.metrics.JobsProcessed.WithLabelValues(job.Kind, "succeeded").Inc()
		w.ack(ctx, job, logger)

	case errors.Is(err, ErrUnretryable):
		logger.Error().Err(err).Msg("job failed permanently")
		w.metrics.JobsProcessed.WithLabelValues(job.Kind, "failed").Inc()
		w.ack(ctx, job, logger)

	case job.LastAttempt():
		logger.Error().Err(err).Msg("job failed on final attempt")
		w.metrics.JobsProcessed.WithLabelValues(job.Kind, "exhausted").Inc()
		w.ack(ctx, job, logger)

	default:
		delay := w.delayFor(job.Attempt)
		logger.Warn().Err(err).Dur("retry_in", delay).Msg("job failed, rescheduling")
		w.metrics.JobsProcessed.WithLabelValues(job.Kind, "retried").Inc()

		retry := job
		retry.Attempt++
		if enqErr := w.queue.EnqueueDelayed(ctx, retry, delay); enqErr != nil {
			// Leave the original unacked so it stays visible as pending.
			logger.Error().Err(enqErr).Msg("rescheduling failed, job left pending")
			return
		}
		w.ack(ctx, job, logger)
	}
}

// delayFor returns the backoff for a just-failed attempt (1-based).
func (w *Worker) delayFor(attempt int) time.Duration {
	if len(w.backoff) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(w.backoff) {
		idx = len(w.backoff) - 1
	}
	return w.backoff[idx]
}

func (w *Worker) ack(ctx context.Context, job domain.Job, logger zerolog.Logger) {
	if err := w.consumer.Ack(ctx, job); err != nil {
		logger.Warn().Err(err).Msg("ack failed")
	}
}
