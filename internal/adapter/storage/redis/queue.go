package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	streamPrefix    = "evobridge:jobs:"
	scheduledPrefix = "evobridge:scheduled:"
	consumerGroup   = "evobridge-workers"
	consumerName    = "worker"
)

// Queue is a Redis Streams backed job queue with a sorted-set scheduler
// for delayed delivery. Jobs are appended to a stream per queue name and
// consumed through a consumer group so acknowledgement survives worker
// restarts.
type Queue struct {
	client *goredis.Client
	queue  string
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[string]string // job ID -> stream message ID awaiting ack
}

// NewQueue creates a queue bound to a single queue name.
func NewQueue(client *goredis.Client, queue string, log zerolog.Logger) *Queue {
	return &Queue{
		client:  client,
		queue:   queue,
		log:     log.With().Str("component", "redis_queue").Str("queue", queue).Logger(),
		pending: make(map[string]string),
	}
}

func (q *Queue) streamKey() string {
	return streamPrefix + q.queue
}

func (q *Queue) scheduledKey() string {
	return scheduledPrefix + q.queue
}

// ensureGroup creates the consumer group if it does not exist yet.
// BUSYGROUP errors are expected on every call after the first.
func (q *Queue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.streamKey(), consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Enqueue appends the job to the stream for immediate delivery.
func (q *Queue) Enqueue(ctx context.Context, job domain.Job) error {
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	if err := q.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: q.streamKey(),
		Values: map[string]interface{}{"job": data},
	}).Err(); err != nil {
		return fmt.Errorf("adding job to stream: %w", err)
	}

	q.log.Debug().
		Str("job_id", job.ID).
		Str("kind", job.Kind).
		Int("attempt", job.Attempt).
		Msg("Job enqueued")

	return nil
}

// EnqueueDelayed parks the job in the scheduled set until its due time.
// Due jobs are promoted to the stream on the next Dequeue call.
func (q *Queue) EnqueueDelayed(ctx context.Context, job domain.Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	dueAt := time.Now().Add(delay)
	if err := q.client.ZAdd(ctx, q.scheduledKey(), goredis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("scheduling job: %w", err)
	}

	q.log.Debug().
		Str("job_id", job.ID).
		Str("kind", job.Kind).
		Dur("delay", delay).
		Time("due_at", dueAt).
		Msg("Job scheduled")

	return nil
}

// promoteDue moves jobs whose due time has passed from the scheduled set
// to the stream. ZRem acts as the claim: only the caller that removes the
// member promotes it, so concurrent workers never duplicate a job.
func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	members, err := q.client.ZRangeByScore(ctx, q.scheduledKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("reading scheduled jobs: %w", err)
	}

	for _, member := range members {
		removed, err := q.client.ZRem(ctx, q.scheduledKey(), member).Result()
		if err != nil {
			return fmt.Errorf("claiming scheduled job: %w", err)
		}
		if removed == 0 {
			continue // another worker claimed it
		}

		if err := q.client.XAdd(ctx, &goredis.XAddArgs{
			Stream: q.streamKey(),
			Values: map[string]interface{}{"job": member},
		}).Err(); err != nil {
			return fmt.Errorf("promoting scheduled job: %w", err)
		}
	}

	return nil
}

// Dequeue returns the next available job, or nil when the queue is empty.
// It blocks for up to one second waiting for new work.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Job, error) {
	if err := q.ensureGroup(ctx); err != nil {
		return nil, err
	}

	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	streams, err := q.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: consumerName,
		Streams:  []string{q.streamKey(), ">"},
		Count:    1,
		Block:    1 * time.Second,
	}).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values["job"].(string)
			if !ok {
				// Malformed entry. Ack it so it does not wedge the group.
				q.client.XAck(ctx, q.streamKey(), consumerGroup, msg.ID)
				q.log.Warn().Str("message_id", msg.ID).Msg("Discarding malformed stream entry")
				continue
			}

			var job domain.Job
			if err := json.Unmarshal([]byte(raw), &job); err != nil {
				q.client.XAck(ctx, q.streamKey(), consumerGroup, msg.ID)
				q.log.Warn().Str("message_id", msg.ID).Err(err).Msg("Discarding undecodable job")
				continue
			}

			q.mu.Lock()
			q.pending[job.ID] = msg.ID
			q.mu.Unlock()

			return &job, nil
		}
	}

	return nil, nil
}

// Ack acknowledges the stream message backing the job.
func (q *Queue) Ack(ctx context.Context, job domain.Job) error {
	q.mu.Lock()
	msgID, ok := q.pending[job.ID]
	if ok {
		delete(q.pending, job.ID)
	}
	q.mu.Unlock()

	if !ok {
		return nil
	}

	if err := q.client.XAck(ctx, q.streamKey(), consumerGroup, msgID).Err(); err != nil {
		return fmt.Errorf("acking job: %w", err)
	}
	return nil
}
