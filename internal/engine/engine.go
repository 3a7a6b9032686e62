// Package engine drives the per-run state machine. Each queued step task is
// processed independently: load the node, evaluate it, record the outcome,
// then enqueue the next step or finalize the run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/camino-run/camino/internal/registry"
	"github.com/camino-run/camino/pkg/domain"
	"github.com/camino-run/camino/pkg/ports"
)

// Engine is the step handler. Store and scheduler are injected so every
// worker and every test constructs its own instance.
type Engine struct {
	store     ports.Store
	scheduler ports.Scheduler
	registry  *registry.Registry
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger used by the engine and its registry.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine bound to a store and a scheduler.
func New(store ports.Store, scheduler ports.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		scheduler: scheduler,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	e.registry = registry.New(e.logger)
	return e
}

// ProcessStep executes one step task.
//
// Failures after the run is marked in progress collapse into a terminal
// FAILED run and return nil: the task is consumed, never re-enqueued by the
// engine itself. A non-nil return means the outcome could not be recorded
// durably; the caller must leave the task unacknowledged so the scheduler
// redelivers it.
func (e *Engine) ProcessStep(ctx context.Context, task domain.StepTask) error {
	started := time.Now()
	log := e.logger.With("run_id", task.RunID, "node_id", task.NodeID)

	if err := e.store.MarkRunInProgress(ctx, task.RunID, task.NodeID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRunFinished):
			// Stale redelivery for a terminal run: drop without side effects.
			log.Debug("dropping step for finished run")
			e.metrics.stepDropped()
			return nil
		case errors.Is(err, domain.ErrRunNotFound):
			// The run was removed by external housekeeping; nothing to fail.
			log.Warn("dropping step for unknown run")
			e.metrics.stepDropped()
			return nil
		default:
			return fmt.Errorf("mark run in progress: %w", err)
		}
	}

	node, err := e.store.GetNode(ctx, task.NodeID)
	if err != nil {
		return e.failRun(ctx, log, task, fmt.Errorf("load node: %w", err))
	}

	outcome, err := e.registry.Evaluate(node, task.Context)
	if err != nil {
		return e.failRun(ctx, log, task, fmt.Errorf("evaluate node: %w", err))
	}

	if err := e.store.AppendExecutionLog(ctx, task.RunID, task.NodeID, domain.LogSuccess); err != nil {
		return e.failRun(ctx, log, task, fmt.Errorf("append execution log: %w", err))
	}

	if outcome.NextNodeID == "" {
		if err := e.store.MarkRunTerminal(ctx, task.RunID, domain.RunCompleted); err != nil {
			return e.failRun(ctx, log, task, fmt.Errorf("complete run: %w", err))
		}
		log.Info("run completed")
		e.metrics.stepProcessed(node.Type, started)
		e.metrics.runFinished(domain.RunCompleted)
		return nil
	}

	next := domain.StepTask{
		RunID:   task.RunID,
		NodeID:  outcome.NextNodeID,
		Context: task.Context,
	}
	if err := e.scheduler.Enqueue(ctx, next, outcome.Delay); err != nil {
		return e.failRun(ctx, log, task, fmt.Errorf("enqueue next step: %w", err))
	}

	log.Debug("step committed", "next_node_id", outcome.NextNodeID, "delay", outcome.Delay)
	e.metrics.stepProcessed(node.Type, started)
	return nil
}

// failRun marks the run FAILED. The step task is consumed either way; the
// engine never retries business logic itself (redelivery is the scheduler's
// concern, and once FAILED sticks there is nothing left to retry).
func (e *Engine) failRun(ctx context.Context, log *slog.Logger, task domain.StepTask, cause error) error {
	log.Error("step failed", "err", cause)
	e.metrics.stepErrored()

	if err := e.store.MarkRunTerminal(ctx, task.RunID, domain.RunFailed); err != nil {
		// Could not even record the failure; leave the task for redelivery.
		return fmt.Errorf("mark run failed (cause: %v): %w", cause, err)
	}
	e.metrics.runFinished(domain.RunFailed)
	return nil
}
