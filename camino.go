package camino

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/camino-run/camino/internal/engine"
	"github.com/camino-run/camino/internal/worker"
	httpadapter "github.com/camino-run/camino/pkg/adapters/http"
	"github.com/camino-run/camino/pkg/ports"
)

// System bundles the journey engine, its worker pool, and the HTTP API
// around a store and scheduler pair. It is the high-level entry point
// for embedding camino in another program; the cmd/camino binary is a
// thin wrapper around it.
type System struct {
	store     ports.Store
	scheduler ports.Scheduler
	engine    *engine.Engine
	pool      *worker.Pool
	handler   http.Handler
	logger    *slog.Logger
	registry  *prometheus.Registry
	workers   int
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the structured logger shared by the engine, workers,
// and HTTP middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

// WithWorkers sets the number of concurrent step workers (default 4).
func WithWorkers(n int) Option {
	return func(s *System) {
		s.workers = n
	}
}

// WithPrometheusRegistry injects a custom metrics registry. When unset,
// a private registry is created and exposed on the handler's /metrics
// endpoint.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(s *System) {
		s.registry = reg
	}
}

// New wires a System around the given store and scheduler.
func New(store ports.Store, scheduler ports.Scheduler, opts ...Option) *System {
	s := &System{
		store:     store,
		scheduler: scheduler,
		workers:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	metrics := engine.NewMetrics(s.registry)
	s.engine = engine.New(store, scheduler,
		engine.WithLogger(s.logger),
		engine.WithMetrics(metrics),
	)
	s.pool = worker.New(scheduler, s.engine, s.workers, s.logger)
	s.handler = httpadapter.NewHandler(store, scheduler, s.logger, s.registry)
	return s
}

// Handler returns the HTTP API for journeys, runs, health, and metrics.
func (s *System) Handler() http.Handler {
	return s.handler
}

// RunWorkers blocks processing queued steps until ctx is cancelled and
// all in-flight steps have finished.
func (s *System) RunWorkers(ctx context.Context) {
	s.pool.Run(ctx)
}
