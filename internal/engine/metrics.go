package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/camino-run/camino/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	stepsTotal   *prometheus.CounterVec
	runsTotal    *prometheus.CounterVec
	stepDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camino_steps_total",
				Help: "Step tasks handled, by node type and outcome.",
			},
			[]string{"node_type", "outcome"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camino_runs_finished_total",
				Help: "Runs that reached a terminal state, by status.",
			},
			[]string{"status"},
		),
		stepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "camino_step_duration_seconds",
				Help: "Duration of successfully committed steps.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.stepsTotal, m.runsTotal, m.stepDuration)
	}
	return m
}

func (m *Metrics) stepProcessed(nodeType domain.NodeType, started time.Time) {
	m.stepsTotal.WithLabelValues(string(nodeType), "ok").Inc()
	m.stepDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) stepErrored() {
	m.stepsTotal.WithLabelValues("", "error").Inc()
}

func (m *Metrics) stepDropped() {
	m.stepsTotal.WithLabelValues("", "dropped").Inc()
}

func (m *Metrics) runFinished(status domain.RunStatus) {
	m.runsTotal.WithLabelValues(string(status)).Inc()
}
