package domain

// Journey is a named graph of nodes. It is created once via the API, never
// mutated by the engine, and read-only input to runs.
type Journey struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	StartNodeID string   `json:"start_node_id"`
	NodeIDs     []string `json:"node_ids"`
}

// Contains reports whether nodeID belongs to the journey's node set.
func (j *Journey) Contains(nodeID string) bool {
	for _, id := range j.NodeIDs {
		if id == nodeID {
			return true
		}
	}
	return false
}
