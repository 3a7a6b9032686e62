package domain

// StepTask instructs a worker to execute one node for one run. It is the
// queue wire payload; workers must accept redelivery of any previously-seen
// task without corrupting run state.
type StepTask struct {
	ID      string         `json:"id,omitempty"`
	RunID   string         `json:"run_id"`
	NodeID  string         `json:"node_id"`
	Context map[string]any `json:"context"`
}
