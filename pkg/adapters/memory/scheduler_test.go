package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camino-run/camino/pkg/adapters/memory"
	"github.com/camino-run/camino/pkg/domain"
)

func TestScheduler_DeliversImmediately(t *testing.T) {
	s := memory.NewScheduler()
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, domain.StepTask{RunID: "r1", NodeID: "n1"}, 0))

	dequeueCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	task, ack, err := s.Dequeue(dequeueCtx)
	require.NoError(t, err)
	assert.Equal(t, "r1", task.RunID)
	assert.Equal(t, "n1", task.NodeID)
	require.NoError(t, ack(ctx))
}

func TestScheduler_HonorsDelay(t *testing.T) {
	s := memory.NewScheduler()
	ctx := context.Background()

	const delay = 80 * time.Millisecond
	enqueuedAt := time.Now()
	require.NoError(t, s.Enqueue(ctx, domain.StepTask{RunID: "r1", NodeID: "n1"}, delay))

	dequeueCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, ack, err := s.Dequeue(dequeueCtx)
	require.NoError(t, err)
	defer ack(ctx)

	assert.GreaterOrEqual(t, time.Since(enqueuedAt), delay, "delivery must not happen before the delay elapses")
}

func TestScheduler_RedeliversUnacknowledgedTasks(t *testing.T) {
	s := memory.NewScheduler(memory.WithVisibilityTimeout(30 * time.Millisecond))
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, domain.StepTask{RunID: "r1", NodeID: "n1"}, 0))

	dequeueCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	first, _, err := s.Dequeue(dequeueCtx)
	require.NoError(t, err)
	// Simulate a worker crash: never ack.

	second, ack, err := s.Dequeue(dequeueCtx)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.NodeID, second.NodeID)
	require.NoError(t, ack(ctx))

	// Acknowledged tasks stay gone.
	shortCtx, cancelShort := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancelShort()
	_, _, err = s.Dequeue(shortCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_DequeueStopsOnContextCancel(t *testing.T) {
	s := memory.NewScheduler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
