package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/camino-run/camino/pkg/adapters/redis"
	"github.com/camino-run/camino/pkg/domain"
)

func newTestQueue(t *testing.T, opts ...redisadapter.QueueOption) *redisadapter.Queue {
	t.Helper()
	opts = append([]redisadapter.QueueOption{
		redisadapter.WithPollInterval(10 * time.Millisecond),
	}, opts...)
	return redisadapter.NewQueue(newTestClient(t), opts...)
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	task := domain.StepTask{
		RunID:   "run-1",
		NodeID:  "start",
		Context: map[string]any{"age": float64(25)},
	}
	require.NoError(t, q.Enqueue(ctx, task, 0))

	dequeueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	got, ack, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)
	assert.Equal(t, task.RunID, got.RunID)
	assert.Equal(t, task.NodeID, got.NodeID)
	assert.Equal(t, task.Context, got.Context)
	assert.NotEmpty(t, got.ID, "the queue assigns task IDs")

	require.NoError(t, ack(ctx))

	// Nothing left after the ack.
	shortCtx, cancelShort := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancelShort()
	_, _, err = q.Dequeue(shortCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_DelayedTasksAreNotDeliveredEarly(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	const delay = 120 * time.Millisecond
	enqueuedAt := time.Now()
	require.NoError(t, q.Enqueue(ctx, domain.StepTask{RunID: "run-1", NodeID: "wait"}, delay))

	dequeueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, ack, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)
	defer ack(ctx)

	assert.GreaterOrEqual(t, time.Since(enqueuedAt), delay, "delivery before the delay elapses breaks the DELAY contract")
}

func TestQueue_UnackedTasksAreRedelivered(t *testing.T) {
	q := newTestQueue(t, redisadapter.WithVisibilityTimeout(50*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, domain.StepTask{RunID: "run-1", NodeID: "start"}, 0))

	dequeueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	first, _, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)
	// Worker crash: the claim is never acknowledged.

	second, ack, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "the same task comes back after the visibility timeout")
	require.NoError(t, ack(ctx))
}

func TestQueue_DeliversToExactlyOneWorker(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, domain.StepTask{RunID: "run-1", NodeID: "start"}, 0))

	dequeueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, ack, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)

	// A second worker sees nothing while the claim is live.
	shortCtx, cancelShort := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancelShort()
	_, _, err = q.Dequeue(shortCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, ack(ctx))
}

func TestQueue_OrdersByReadyTime(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, domain.StepTask{RunID: "late", NodeID: "n"}, 150*time.Millisecond))
	require.NoError(t, q.Enqueue(ctx, domain.StepTask{RunID: "soon", NodeID: "n"}, 0))

	dequeueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	first, ack, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)
	assert.Equal(t, "soon", first.RunID)
	require.NoError(t, ack(ctx))

	second, ack2, err := q.Dequeue(dequeueCtx)
	require.NoError(t, err)
	assert.Equal(t, "late", second.RunID)
	require.NoError(t, ack2(ctx))
}
