package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camino-run/camino/internal/worker"
	"github.com/camino-run/camino/pkg/adapters/memory"
	"github.com/camino-run/camino/pkg/domain"
)

// recordingHandler counts deliveries per task and optionally fails the first
// attempt to exercise the redelivery path.
type recordingHandler struct {
	mu        sync.Mutex
	seen      map[string]int
	failFirst bool
	done      chan string
}

func newRecordingHandler(failFirst bool) *recordingHandler {
	return &recordingHandler{
		seen:      make(map[string]int),
		failFirst: failFirst,
		done:      make(chan string, 64),
	}
}

func (h *recordingHandler) ProcessStep(ctx context.Context, task domain.StepTask) error {
	h.mu.Lock()
	h.seen[task.RunID]++
	attempt := h.seen[task.RunID]
	h.mu.Unlock()

	if h.failFirst && attempt == 1 {
		return errors.New("outcome not recorded")
	}
	h.done <- task.RunID
	return nil
}

func (h *recordingHandler) attempts(runID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen[runID]
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for task %s", want)
	}
}

func TestPool_ProcessesAndAcks(t *testing.T) {
	scheduler := memory.NewScheduler(memory.WithVisibilityTimeout(50 * time.Millisecond))
	handler := newRecordingHandler(false)
	pool := worker.New(scheduler, handler, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(stopped)
	}()

	require.NoError(t, scheduler.Enqueue(ctx, domain.StepTask{RunID: "run-1", NodeID: "start"}, 0))
	waitFor(t, handler.done, "run-1")

	// Acked tasks never come back, even past the visibility timeout.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, handler.attempts("run-1"))

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after context cancellation")
	}
}

func TestPool_RedeliversWhenOutcomeNotRecorded(t *testing.T) {
	scheduler := memory.NewScheduler(memory.WithVisibilityTimeout(30 * time.Millisecond))
	handler := newRecordingHandler(true)
	pool := worker.New(scheduler, handler, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	require.NoError(t, scheduler.Enqueue(ctx, domain.StepTask{RunID: "run-1", NodeID: "start"}, 0))

	waitFor(t, handler.done, "run-1")
	assert.GreaterOrEqual(t, handler.attempts("run-1"), 2, "the failed first attempt is retried via redelivery")
}

func TestPool_RunsTasksConcurrently(t *testing.T) {
	scheduler := memory.NewScheduler()
	handler := newRecordingHandler(false)
	pool := worker.New(scheduler, handler, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, scheduler.Enqueue(ctx, domain.StepTask{RunID: id, NodeID: "n"}, 0))
	}

	got := map[string]bool{}
	for i := 0; i < 4; i++ {
		select {
		case id := <-handler.done:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	assert.Len(t, got, 4)
}
