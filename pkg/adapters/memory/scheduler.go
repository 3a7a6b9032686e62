package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camino-run/camino/pkg/domain"
	"github.com/camino-run/camino/pkg/ports"
)

const defaultVisibilityTimeout = 30 * time.Second

// Scheduler delivers step tasks in-process. Delays ride on timers; a
// delivered task that is not acknowledged within the visibility timeout is
// made ready again, matching the at-least-once contract of the Redis queue.
type Scheduler struct {
	mu         sync.Mutex
	tasks      map[string]domain.StepTask
	inflight   map[string]*time.Timer
	ready      chan string
	visibility time.Duration
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithVisibilityTimeout sets how long a delivered task stays invisible
// before it is offered to another worker.
func WithVisibilityTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.visibility = d
	}
}

// NewScheduler creates an in-process scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		tasks:      make(map[string]domain.StepTask),
		inflight:   make(map[string]*time.Timer),
		ready:      make(chan string, 1024),
		visibility: defaultVisibilityTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Enqueue(ctx context.Context, task domain.StepTask, delay time.Duration) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		s.ready <- task.ID
	})
	return nil
}

func (s *Scheduler) Dequeue(ctx context.Context) (*domain.StepTask, ports.AckFunc, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case id := <-s.ready:
			s.mu.Lock()
			task, ok := s.tasks[id]
			if !ok {
				// Acknowledged while a redelivery was pending.
				s.mu.Unlock()
				continue
			}
			s.inflight[id] = time.AfterFunc(s.visibility, func() {
				s.expire(id)
			})
			s.mu.Unlock()

			ack := func(context.Context) error {
				s.mu.Lock()
				defer s.mu.Unlock()
				if timer, ok := s.inflight[id]; ok {
					timer.Stop()
					delete(s.inflight, id)
				}
				delete(s.tasks, id)
				return nil
			}
			return &task, ack, nil
		}
	}
}

func (s *Scheduler) expire(id string) {
	s.mu.Lock()
	_, wasInflight := s.inflight[id]
	delete(s.inflight, id)
	_, stillPending := s.tasks[id]
	s.mu.Unlock()

	if wasInflight && stillPending {
		s.ready <- id
	}
}
