package ports

import (
	"context"

	"github.com/camino-run/camino/pkg/domain"
)

// Store persists journey definitions, runs and execution logs. It is the
// single source of truth for run state: all run mutations go through its
// narrow operations so the terminal-state invariant holds under concurrent
// task redelivery.
type Store interface {
	// CreateJourney persists the nodes and the journey referencing them,
	// returning the journey ID. It fails with *domain.ValidationError when
	// startNodeID is absent from nodes.
	CreateJourney(ctx context.Context, name, startNodeID string, nodes []domain.JourneyNode) (string, error)

	// GetJourney returns the journey and its start node.
	// Returns domain.ErrJourneyNotFound if the journey does not exist.
	GetJourney(ctx context.Context, journeyID string) (*domain.Journey, *domain.JourneyNode, error)

	// GetNode returns a node by ID, or domain.ErrNodeNotFound.
	GetNode(ctx context.Context, nodeID string) (*domain.JourneyNode, error)

	// CreateRun creates a PENDING run positioned at startNodeID and returns
	// its ID.
	CreateRun(ctx context.Context, journeyID, startNodeID string, runContext map[string]any) (string, error)

	// MarkRunInProgress sets status=IN_PROGRESS and the current node.
	// Idempotent: safe to call again for the same node on task redelivery.
	// Returns domain.ErrRunFinished once the run is terminal and
	// domain.ErrRunNotFound when the run does not exist.
	MarkRunInProgress(ctx context.Context, runID, nodeID string) error

	// AppendExecutionLog appends one audit record. Entries are never mutated
	// or deleted.
	AppendExecutionLog(ctx context.Context, runID, nodeID string, status domain.LogStatus) error

	// MarkRunTerminal sets a terminal status and clears the current node.
	// A no-op when the run is already terminal, preserving the
	// absorbing-state invariant. Status must be COMPLETED or FAILED.
	MarkRunTerminal(ctx context.Context, runID string, status domain.RunStatus) error

	// GetRunWithLogs returns the run and its execution logs in execution
	// order, or domain.ErrRunNotFound.
	GetRunWithLogs(ctx context.Context, runID string) (*domain.Run, []domain.ExecutionLog, error)
}
