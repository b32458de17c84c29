package ports

import (
	"context"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
)

// JobHandler executes the body of one queued job kind.
type JobHandler func(ctx context.Context, job domain.Job) error

// JobQueue submits job envelopes for asynchronous execution.
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.Job) error
	// EnqueueDelayed schedules the job to become available after delay.
	EnqueueDelayed(ctx context.Context, job domain.Job, delay time.Duration) error
}

// JobConsumer hands queued jobs to a worker.
type JobConsumer interface {
	// Dequeue returns the next available job, or nil when none is ready.
	Dequeue(ctx context.Context) (*domain.Job, error)
	// Ack marks a delivered job as done.
	Ack(ctx context.Context, job domain.Job) error
}
