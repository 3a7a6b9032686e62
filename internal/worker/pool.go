// Package worker runs the pull-based worker pool. Each worker owns its own
// loop: dequeue a step task, hand it to the engine, acknowledge once the
// outcome is durable. Shutdown is context-driven so every exit path releases
// its claim cleanly instead of relying on process signal handlers.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/camino-run/camino/pkg/domain"
	"github.com/camino-run/camino/pkg/ports"
)

const dequeueRetryBackoff = time.Second

// Handler processes one step task. Implemented by the engine.
type Handler interface {
	ProcessStep(ctx context.Context, task domain.StepTask) error
}

// Pool supervises a fixed number of concurrent workers.
type Pool struct {
	scheduler ports.Scheduler
	handler   Handler
	size      int
	logger    *slog.Logger
}

// New creates a pool of size workers. Size values below one are clamped.
func New(scheduler ports.Scheduler, handler Handler, size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		scheduler: scheduler,
		handler:   handler,
		size:      size,
		logger:    logger,
	}
}

// Run blocks until ctx is canceled and every worker has drained its current
// task.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("starting workers", "count", p.size)

	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.loop(ctx, id)
		}(i)
	}
	wg.Wait()

	p.logger.Info("workers stopped")
	return nil
}

func (p *Pool) loop(ctx context.Context, id int) {
	log := p.logger.With("worker", id)

	for {
		task, ack, err := p.scheduler.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Error("dequeue failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(dequeueRetryBackoff):
			}
			continue
		}

		if err := p.handler.ProcessStep(ctx, *task); err != nil {
			// The outcome was not recorded; leave the claim to expire so the
			// task is redelivered.
			log.Error("step left for redelivery", "err", err, "run_id", task.RunID, "node_id", task.NodeID)
			continue
		}

		if err := ack(ctx); err != nil {
			// Already processed; the redelivered duplicate is tolerated by
			// the engine's idempotent transitions.
			log.Warn("ack failed", "err", err, "run_id", task.RunID, "node_id", task.NodeID)
		}
	}
}
