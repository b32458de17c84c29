package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*redis.Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis.NewQueue(client, "default", zerolog.Nop()), mr
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job, err := domain.NewJob(domain.JobKindMessageSend, "default", map[string]string{"number": "5511999999999"}, 3)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, job))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.JobKindMessageSend, got.Kind)
	assert.Equal(t, "default", got.Queue)
	assert.Equal(t, 1, got.Attempt)
	assert.Equal(t, 3, got.MaxAttempts)
	assert.JSONEq(t, string(job.Payload), string(got.Payload))

	require.NoError(t, q.Ack(ctx, *got))
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q, _ := newTestQueue(t)

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueue_FIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	first, err := domain.NewJob(domain.JobKindWebhookProcess, "default", map[string]string{"event": "messages.upsert"}, 1)
	require.NoError(t, err)
	second, err := domain.NewJob(domain.JobKindWebhookProcess, "default", map[string]string{"event": "connection.update"}, 1)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	got1, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got1)
	assert.Equal(t, first.ID, got1.ID)

	got2, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got2)
	assert.Equal(t, second.ID, got2.ID)
}

func TestQueue_EnqueueDelayed(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	t.Run("job is held until due", func(t *testing.T) {
		job, err := domain.NewJob(domain.JobKindMessageSend, "default", map[string]string{"number": "1"}, 3)
		require.NoError(t, err)

		require.NoError(t, q.EnqueueDelayed(ctx, job, time.Hour))

		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("job is promoted once due", func(t *testing.T) {
		job, err := domain.NewJob(domain.JobKindMessageSend, "default", map[string]string{"number": "2"}, 3)
		require.NoError(t, err)

		require.NoError(t, q.EnqueueDelayed(ctx, job, 10*time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, job.ID, got.ID)
	})
}

func TestQueue_AckUnknownJob(t *testing.T) {
	q, _ := newTestQueue(t)

	job, err := domain.NewJob(domain.JobKindMessageSend, "default", nil, 3)
	require.NoError(t, err)

	// Acking a job never dequeued is a no-op
	assert.NoError(t, q.Ack(context.Background(), job))
}

func TestQueue_AckRemovesFromPending(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	job, err := domain.NewJob(domain.JobKindMessageSend, "default", map[string]string{"number": "3"}, 3)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, job))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, q.Ack(ctx, *got))

	// Stream entry still exists but is acknowledged; nothing new to read.
	assert.True(t, mr.Exists("evobridge:jobs:default"))

	next, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)
}
