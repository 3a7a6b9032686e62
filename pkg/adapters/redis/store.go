// Package redis implements the store and scheduler ports on Redis. Run
// state transitions go through small Lua scripts so the absorbing terminal
// state holds even when step tasks are redelivered concurrently.
package redis

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/camino-run/camino/pkg/domain"
)

const defaultPrefix = "camino:"

// Store implements ports.Store using Redis. Journeys and nodes are plain
// JSON values; runs are hashes so status transitions can be guarded
// atomically; execution logs are lists, preserving append order.
type Store struct {
	client *backend.Client
	prefix string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStorePrefix sets the key prefix.
func WithStorePrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore creates a Redis store from an existing client.
func NewStore(client *backend.Client, opts ...StoreOption) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) journeyKey(id string) string { return s.prefix + "journey:" + id }

func (s *Store) nodeKey(id string) string { return s.prefix + "node:" + id }

func (s *Store) runKey(id string) string { return s.prefix + "run:" + id }

func (s *Store) logKey(id string) string { return s.prefix + "run:" + id + ":logs" }

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

	journey := domain.Journey{
		ID:          uuid.New().String(),
		Name:        name,
		StartNodeID: startNodeID,
		NodeIDs:     nodeIDs,
	}
	journeyData, err := json.Marshal(journey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal journey: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, n := range nodes {
		nodeData, err := json.Marshal(n)
		if err != nil {
			return "", fmt.Errorf("failed to marshal node %s: %w", n.ID, err)
		}
		pipe.Set(ctx, s.nodeKey(n.ID), nodeData, 0)
	}
	pipe.Set(ctx, s.journeyKey(journey.ID), journeyData, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to persist journey: %w", err)
	}
	return journey.ID, nil
}

func (s *Store) GetJourney(ctx context.Context, journeyID string) (*domain.Journey, *domain.JourneyNode, error) {
	val, err := s.client.Get(ctx, s.journeyKey(journeyID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, nil, domain.ErrJourneyNotFound
		}
		return nil, nil, fmt.Errorf("failed to get journey: %w", err)
	}

	var journey domain.Journey
	if err := json.Unmarshal([]byte(val), &journey); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal journey: %w", err)
	}

	start, err := s.GetNode(ctx, journey.StartNodeID)
	if err != nil {
		return nil, nil, err
	}
	return &journey, start, nil
}

func (s *Store) GetNode(ctx context.Context, nodeID string) (*domain.JourneyNode, error) {
	val, err := s.client.Get(ctx, s.nodeKey(nodeID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	var node domain.JourneyNode
	if err := json.Unmarshal([]byte(val), &node); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return &node, nil
}

func (s *Store) CreateRun(ctx context.Context, journeyID, startNodeID string, runContext map[string]any) (string, error) {
	contextData, err := json.Marshal(runContext)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run context: %w", err)
	}

	id := uuid.New().String()
	err = s.client.HSet(ctx, s.runKey(id),
		"journey_id", journeyID,
		"status", string(domain.RunPending),
		"current_node_id", startNodeID,
		"context", contextData,
	).Err()
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// markInProgressScript refuses terminal runs so stale redeliveries cannot
// resurrect a finished run.
var markInProgressScript = backend.NewScript(`
	local status = redis.call("HGET", KEYS[1], "status")
	if not status then
		return "missing"
	end
	if status == "COMPLETED" or status == "FAILED" then
		return "finished"
	end
	redis.call("HSET", KEYS[1], "status", "IN_PROGRESS")
	redis.call("HSET", KEYS[1], "current_node_id", ARGV[1])
	return "ok"
`)

func (s *Store) MarkRunInProgress(ctx context.Context, runID, nodeID string) error {
	res, err := markInProgressScript.Run(ctx, s.client, []string{s.runKey(runID)}, nodeID).Text()
	if err != nil {
		return fmt.Errorf("failed to mark run in progress: %w", err)
	}
	switch res {
	case "ok":
		return nil
	case "missing":
		return domain.ErrRunNotFound
	case "finished":
		return domain.ErrRunFinished
	}
	return fmt.Errorf("unexpected transition result %q", res)
}

func (s *Store) AppendExecutionLog(ctx context.Context, runID, nodeID string, status domain.LogStatus) error {
	entry := domain.ExecutionLog{
		RunID:      runID,
		NodeID:     nodeID,
		Status:     status,
		ExecutedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	if err := s.client.RPush(ctx, s.logKey(runID), data).Err(); err != nil {
		return fmt.Errorf("failed to append execution log: %w", err)
	}
	return nil
}

// markTerminalScript is a no-op once the run is terminal, preserving the
// absorbing-state invariant under concurrent redelivery.
var markTerminalScript = backend.NewScript(`
	local status = redis.call("HGET", KEYS[1], "status")
	if not status then
		return "missing"
	end
	if status == "COMPLETED" or status == "FAILED" then
		return "finished"
	end
	redis.call("HSET", KEYS[1], "status", ARGV[1])
	redis.call("HDEL", KEYS[1], "current_node_id")
	return "ok"
`)

func (s *Store) MarkRunTerminal(ctx context.Context, runID string, status domain.RunStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	res, err := markTerminalScript.Run(ctx, s.client, []string{s.runKey(runID)}, string(status)).Text()
	if err != nil {
		return fmt.Errorf("failed to mark run terminal: %w", err)
	}
	switch res {
	case "ok", "finished":
		return nil
	case "missing":
		return domain.ErrRunNotFound
	}
	return fmt.Errorf("unexpected transition result %q", res)
}

func (s *Store) GetRunWithLogs(ctx context.Context, runID string) (*domain.Run, []domain.ExecutionLog, error) {
	fields, err := s.client.HGetAll(ctx, s.runKey(runID)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil, domain.ErrRunNotFound
	}

	run := domain.Run{
		ID:            runID,
		JourneyID:     fields["journey_id"],
		Status:        domain.RunStatus(fields["status"]),
		CurrentNodeID: fields["current_node_id"],
	}
	if raw := fields["context"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &run.Context); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal run context: %w", err)
		}
	}

	entries, err := s.client.LRange(ctx, s.logKey(runID), 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read execution logs: %w", err)
	}
	logs := make([]domain.ExecutionLog, 0, len(entries))
	for _, raw := range entries {
		var entry domain.ExecutionLog
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal log entry: %w", err)
		}
		logs = append(logs, entry)
	}
	return &run, logs, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
