package ports

import (
	"context"
	"time"

	"github.com/camino-run/camino/pkg/domain"
)

// AckFunc acknowledges a delivery, removing the task from the queue. A task
// that is never acknowledged becomes visible again after the scheduler's
// visibility timeout and is redelivered.
type AckFunc func(ctx context.Context) error

// Scheduler delivers step tasks to workers with at-least-once semantics and
// optional per-task delay. Tasks for different runs may be delivered
// concurrently and in any relative order; a given run's tasks are enqueued
// in causal order by the engine.
type Scheduler interface {
	// Enqueue schedules the task for delivery to exactly one worker
	// at-or-after now+delay. Delivery may be later than requested, never
	// earlier.
	Enqueue(ctx context.Context, task domain.StepTask, delay time.Duration) error

	// Dequeue blocks until a task is ready or ctx is done. The returned
	// AckFunc must be called once the task's outcome is durably recorded;
	// otherwise the task is redelivered.
	Dequeue(ctx context.Context) (*domain.StepTask, AckFunc, error)
}
