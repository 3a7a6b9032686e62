package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camino-run/camino/pkg/domain"
	"github.com/camino-run/camino/pkg/ports"
)

func contractNodes() []domain.JourneyNode {
	return []domain.JourneyNode{
		{
			ID:         "welcome",
			Type:       domain.NodeTypeLog,
			Definition: domain.LogDefinition{Message: "hello", NextNodeID: "wait"},
		},
		{
			ID:         "wait",
			Type:       domain.NodeTypeDelay,
			Definition: domain.DelayDefinition{DurationSeconds: 1, NextNodeID: "gate"},
		},
		{
			ID:   "gate",
			Type: domain.NodeTypeConditional,
			Definition: domain.ConditionalDefinition{
				Condition:         domain.Condition{Field: "age", Operator: domain.OpGreater, Value: 18},
				OnTrueNextNodeID:  "welcome",
				OnFalseNextNodeID: "",
			},
		},
	}
}

// StoreContractTest is a reusable suite that verifies an adapter complies
// with ports.Store, including the terminal-state invariants the engine
// relies on under task redelivery.
func StoreContractTest(t *testing.T, store ports.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateJourney_RejectsForeignStartNode", func(t *testing.T) {
		_, err := store.CreateJourney(ctx, "broken", "does-not-exist", contractNodes())
		require.Error(t, err)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	journeyID, err := store.CreateJourney(ctx, "contract", "welcome", contractNodes())
	require.NoError(t, err)
	require.NotEmpty(t, journeyID)

	t.Run("GetJourney", func(t *testing.T) {
		journey, start, err := store.GetJourney(ctx, journeyID)
		require.NoError(t, err)
		assert.Equal(t, "contract", journey.Name)
		assert.Equal(t, "welcome", journey.StartNodeID)
		assert.True(t, journey.Contains("gate"))
		require.Equal(t, "welcome", start.ID)
		def, ok := start.Definition.(domain.LogDefinition)
		require.True(t, ok, "start node definition must survive the round trip typed")
		assert.Equal(t, "hello", def.Message)
	})

	t.Run("GetJourney_NotFound", func(t *testing.T) {
		_, _, err := store.GetJourney(ctx, "missing-journey")
		assert.ErrorIs(t, err, domain.ErrJourneyNotFound)
	})

	t.Run("GetNode", func(t *testing.T) {
		node, err := store.GetNode(ctx, "gate")
		require.NoError(t, err)
		def, ok := node.Definition.(domain.ConditionalDefinition)
		require.True(t, ok)
		assert.Equal(t, "age", def.Condition.Field)
		assert.Equal(t, domain.OpGreater, def.Condition.Operator)

		_, err = store.GetNode(ctx, "missing-node")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("RunLifecycle", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, journeyID, "welcome", map[string]any{"age": float64(25)})
		require.NoError(t, err)

		run, logs, err := store.GetRunWithLogs(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunPending, run.Status)
		assert.Equal(t, "welcome", run.CurrentNodeID)
		assert.Equal(t, float64(25), run.Context["age"])
		assert.Empty(t, logs)

		// Idempotent under redelivery of the same step task.
		require.NoError(t, store.MarkRunInProgress(ctx, runID, "welcome"))
		require.NoError(t, store.MarkRunInProgress(ctx, runID, "welcome"))

		require.NoError(t, store.AppendExecutionLog(ctx, runID, "welcome", domain.LogSuccess))
		require.NoError(t, store.AppendExecutionLog(ctx, runID, "wait", domain.LogSuccess))
		require.NoError(t, store.AppendExecutionLog(ctx, runID, "gate", domain.LogFailure))

		run, logs, err = store.GetRunWithLogs(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunInProgress, run.Status)
		require.Len(t, logs, 3)
		assert.Equal(t, "welcome", logs[0].NodeID)
		assert.Equal(t, "wait", logs[1].NodeID)
		assert.Equal(t, "gate", logs[2].NodeID)
		assert.Equal(t, domain.LogFailure, logs[2].Status)
		for _, entry := range logs {
			assert.Equal(t, runID, entry.RunID)
			assert.False(t, entry.ExecutedAt.IsZero())
		}
	})

	t.Run("TerminalStatesAreAbsorbing", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, journeyID, "welcome", nil)
		require.NoError(t, err)

		require.NoError(t, store.MarkRunInProgress(ctx, runID, "welcome"))
		require.NoError(t, store.MarkRunTerminal(ctx, runID, domain.RunCompleted))

		run, _, err := store.GetRunWithLogs(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Empty(t, run.CurrentNodeID, "terminal runs carry no current node")

		// A second terminal write is a no-op, never a downgrade.
		require.NoError(t, store.MarkRunTerminal(ctx, runID, domain.RunFailed))
		run, _, err = store.GetRunWithLogs(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, run.Status)

		// Stale step tasks must be refused.
		err = store.MarkRunInProgress(ctx, runID, "wait")
		assert.ErrorIs(t, err, domain.ErrRunFinished)
	})

	t.Run("RunNotFound", func(t *testing.T) {
		_, _, err := store.GetRunWithLogs(ctx, "missing-run")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)

		err = store.MarkRunInProgress(ctx, "missing-run", "welcome")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})
}
