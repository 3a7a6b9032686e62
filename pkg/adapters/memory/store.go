// Package memory provides in-process implementations of the store and
// scheduler ports, used by tests and by dev mode. They honor the same
// invariants as the Redis adapters, including absorbing terminal states and
// visibility-timeout redelivery.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camino-run/camino/pkg/domain"
)

// Store keeps journeys, nodes, runs and logs in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	journeys map[string]domain.Journey
	nodes    map[string]domain.JourneyNode
	runs     map[string]domain.Run
	logs     map[string][]domain.ExecutionLog
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		journeys: make(map[string]domain.Journey),
		nodes:    make(map[string]domain.JourneyNode),
		runs:     make(map[string]domain.Run),
		logs:     make(map[string][]domain.ExecutionLog),
	}
}

func (s *Store) CreateJourney(ctx context.Context, name, startNodeID string, nodes []domain.JourneyNode) (string, error) {
	if len(nodes) == 0 {
		return "", &domain.ValidationError{Reason: "journey has no nodes"}
	}

	nodeIDs := make([]string, 0, len(nodes))
	found := false
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
		if n.ID == startNodeID {
			found = true
		}
	}
	if !found {
		return "", &domain.ValidationError{Reason: fmt.Sprintf("start node %q is not part of the journey", startNodeID)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	s.journeys[id] = domain.Journey{ID: id, Name: name, StartNodeID: startNodeID, NodeIDs: nodeIDs}
	return id, nil
}

func (s *Store) GetJourney(ctx context.Context, journeyID string) (*domain.Journey, *domain.JourneyNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journey, ok := s.journeys[journeyID]
	if !ok {
		return nil, nil, domain.ErrJourneyNotFound
	}
	start, ok := s.nodes[journey.StartNodeID]
	if !ok {
		return nil, nil, domain.ErrNodeNotFound
	}
	return &journey, &start, nil
}

func (s *Store) GetNode(ctx context.Context, nodeID string) (*domain.JourneyNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, domain.ErrNodeNotFound
	}
	return &node, nil
}

// DeleteNode removes a node. The engine never deletes nodes; this exists for
// external housekeeping and for exercising the missing-node failure path.
func (s *Store) DeleteNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, nodeID)
}

func (s *Store) CreateRun(ctx context.Context, journeyID, startNodeID string, runContext map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.runs[id] = domain.Run{
		ID:            id,
		JourneyID:     journeyID,
		Status:        domain.RunPending,
		CurrentNodeID: startNodeID,
		Context:       copyContext(runContext),
	}
	return id, nil
}

func (s *Store) MarkRunInProgress(ctx context.Context, runID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrRunNotFound
	}
	if run.Status.Terminal() {
		return domain.ErrRunFinished
	}
	run.Status = domain.RunInProgress
	run.CurrentNodeID = nodeID
	s.runs[runID] = run
	return nil
}

func (s *Store) AppendExecutionLog(ctx context.Context, runID, nodeID string, status domain.LogStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[runID] = append(s.logs[runID], domain.ExecutionLog{
		RunID:      runID,
		NodeID:     nodeID,
		Status:     status,
		ExecutedAt: time.Now().UTC(),
	})
	return nil
}

func (s *Store) MarkRunTerminal(ctx context.Context, runID string, status domain.RunStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrRunNotFound
	}
	if run.Status.Terminal() {
		return nil
	}
	run.Status = status
	run.CurrentNodeID = ""
	s.runs[runID] = run
	return nil
}

func (s *Store) GetRunWithLogs(ctx context.Context, runID string) (*domain.Run, []domain.ExecutionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, nil, domain.ErrRunNotFound
	}
	run.Context = copyContext(run.Context)
	logs := make([]domain.ExecutionLog, len(s.logs[runID]))
	copy(logs, s.logs[runID])
	return &run, logs, nil
}

func copyContext(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
