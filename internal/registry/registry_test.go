package registry_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camino-run/camino/internal/registry"
	"github.com/camino-run/camino/pkg/domain"
)

func TestEvaluate_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := registry.New(logger)

	node := &domain.JourneyNode{
		ID:         "welcome",
		Type:       domain.NodeTypeLog,
		Definition: domain.LogDefinition{Message: "time for your exercises", NextNodeID: "wait"},
	}

	outcome, err := reg.Evaluate(node, nil)
	require.NoError(t, err)
	assert.Equal(t, "wait", outcome.NextNodeID)
	assert.Zero(t, outcome.Delay)
	assert.Contains(t, buf.String(), "time for your exercises", "LOG nodes emit to the operational log")
}

func TestEvaluate_Delay(t *testing.T) {
	reg := registry.New(nil)

	node := &domain.JourneyNode{
		ID:         "wait",
		Type:       domain.NodeTypeDelay,
		Definition: domain.DelayDefinition{DurationSeconds: 2.5, NextNodeID: "gate"},
	}

	outcome, err := reg.Evaluate(node, nil)
	require.NoError(t, err)
	assert.Equal(t, "gate", outcome.NextNodeID)
	assert.Equal(t, 2500*time.Millisecond, outcome.Delay)
}

func TestEvaluate_DelayNeverNegative(t *testing.T) {
	reg := registry.New(nil)

	node := &domain.JourneyNode{
		ID:         "wait",
		Type:       domain.NodeTypeDelay,
		Definition: domain.DelayDefinition{DurationSeconds: -3, NextNodeID: "gate"},
	}

	outcome, err := reg.Evaluate(node, nil)
	require.NoError(t, err)
	assert.Zero(t, outcome.Delay)
}

func TestEvaluate_ConditionalBranches(t *testing.T) {
	reg := registry.New(nil)

	node := &domain.JourneyNode{
		ID:   "gate",
		Type: domain.NodeTypeConditional,
		Definition: domain.ConditionalDefinition{
			Condition:         domain.Condition{Field: "age", Operator: domain.OpGreater, Value: float64(18)},
			OnTrueNextNodeID:  "adult",
			OnFalseNextNodeID: "minor",
		},
	}

	outcome, err := reg.Evaluate(node, map[string]any{"age": float64(25)})
	require.NoError(t, err)
	assert.Equal(t, "adult", outcome.NextNodeID)

	outcome, err = reg.Evaluate(node, map[string]any{"age": float64(10)})
	require.NoError(t, err)
	assert.Equal(t, "minor", outcome.NextNodeID)
}

func TestEvaluate_DeterministicOnRedelivery(t *testing.T) {
	reg := registry.New(nil)

	node := &domain.JourneyNode{
		ID:   "gate",
		Type: domain.NodeTypeConditional,
		Definition: domain.ConditionalDefinition{
			Condition:         domain.Condition{Field: "condition", Operator: domain.OpEqual, Value: "hip_replacement"},
			OnTrueNextNodeID:  "hip",
			OnFalseNextNodeID: "knee",
		},
	}
	ctx := map[string]any{"condition": "hip_replacement"}

	first, err := reg.Evaluate(node, ctx)
	require.NoError(t, err)
	second, err := reg.Evaluate(node, ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_UnknownType(t *testing.T) {
	reg := registry.New(nil)

	node := &domain.JourneyNode{ID: "mystery", Type: "WEBHOOK"}

	_, err := reg.Evaluate(node, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
}
