package domain

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunPending    RunStatus = "PENDING"     // created, no step executed yet
	RunInProgress RunStatus = "IN_PROGRESS" // at least one step picked up
	RunCompleted  RunStatus = "COMPLETED"   // a node resolved to no next node
	RunFailed     RunStatus = "FAILED"      // a step failed
)

// Terminal reports whether the status is absorbing. A terminal run never
// transitions again, even under task redelivery.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Run is one execution instance of a journey. CurrentNodeID is empty iff the
// run is terminal. Context is supplied at trigger time and immutable for the
// run's lifetime.
type Run struct {
	ID            string         `json:"id"`
	JourneyID     string         `json:"journey_id"`
	Status        RunStatus      `json:"status"`
	CurrentNodeID string         `json:"current_node_id,omitempty"`
	Context       map[string]any `json:"context"`
}

// LogStatus marks the outcome recorded in an execution-log entry.
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogFailure LogStatus = "failure"
)

// ExecutionLog is one append-only audit record: exactly one entry exists per
// node actually evaluated for a run, ordered by execution time.
type ExecutionLog struct {
	RunID      string    `json:"run_id"`
	NodeID     string    `json:"node_id"`
	Status     LogStatus `json:"status"`
	ExecutedAt time.Time `json:"executed_at"`
}
