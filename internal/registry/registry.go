// Package registry evaluates journey nodes. Evaluation is a pure function
// of (type, definition, run context), so a redelivered step task always
// re-evaluates to the same outcome.
package registry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/camino-run/camino/pkg/domain"
)

// Outcome is the result of evaluating one node: which node follows (empty
// when the run should complete) and how long to defer its delivery.
type Outcome struct {
	NextNodeID string
	Delay      time.Duration
}

// Registry dispatches over the closed set of node types.
type Registry struct {
	logger *slog.Logger
}

// New creates a registry. The logger receives the LOG node side effect.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Evaluate resolves the node's outcome against the run context, performing
// the node's side effect. The switch is exhaustive over the closed union;
// the fallback is only reachable for genuinely unrecognized persisted data.
func (r *Registry) Evaluate(node *domain.JourneyNode, runContext map[string]any) (Outcome, error) {
	switch def := node.Definition.(type) {
	case domain.LogDefinition:
		r.logger.Info(def.Message, "node_id", node.ID)
		return Outcome{NextNodeID: def.NextNodeID}, nil

	case domain.DelayDefinition:
		delay := time.Duration(def.DurationSeconds * float64(time.Second))
		if delay < 0 {
			delay = 0
		}
		return Outcome{NextNodeID: def.NextNodeID, Delay: delay}, nil

	case domain.ConditionalDefinition:
		met, err := evaluateCondition(def.Condition, runContext)
		if err != nil {
			return Outcome{}, fmt.Errorf("node %s: %w", node.ID, err)
		}
		if met {
			return Outcome{NextNodeID: def.OnTrueNextNodeID}, nil
		}
		return Outcome{NextNodeID: def.OnFalseNextNodeID}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %q (node %s)", domain.ErrUnknownNodeType, node.Type, node.ID)
	}
}
