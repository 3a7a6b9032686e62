package domain

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
)

// NodeType identifies the behavior of a journey node.
type NodeType string

const (
	// NodeTypeLog emits a message to the operational log and continues.
	NodeTypeLog NodeType = "LOG"
	// NodeTypeDelay schedules the next step at-or-after a duration.
	NodeTypeDelay NodeType = "DELAY"
	// NodeTypeConditional branches on a comparison against the run context.
	NodeTypeConditional NodeType = "CONDITIONAL"
)

// Operator is a comparison operator usable in a CONDITIONAL node.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
)

// Condition compares one field of the run context against a literal value.
type Condition struct {
	Field    string   `json:"field" mapstructure:"field"`
	Operator Operator `json:"operator" mapstructure:"operator"`
	Value    any      `json:"value" mapstructure:"value"`
}

// Definition holds the type-specific fields of a JourneyNode. The set of
// implementations is closed: LogDefinition, DelayDefinition and
// ConditionalDefinition. Persisted data carrying any other type surfaces as
// ErrUnknownNodeType when decoded or evaluated.
type Definition interface {
	nodeDefinition()
}

// LogDefinition emits Message and continues to NextNodeID.
// An empty NextNodeID ends the journey.
type LogDefinition struct {
	Message    string `json:"message" mapstructure:"message"`
	NextNodeID string `json:"next_node_id" mapstructure:"next_node_id"`
}

func (LogDefinition) nodeDefinition() {}

// DelayDefinition continues to NextNodeID at-or-after DurationSeconds.
// Delivery may be later than requested, never earlier.
type DelayDefinition struct {
	DurationSeconds float64 `json:"duration_seconds" mapstructure:"duration_seconds"`
	NextNodeID      string  `json:"next_node_id" mapstructure:"next_node_id"`
}

func (DelayDefinition) nodeDefinition() {}

// ConditionalDefinition evaluates Condition against the run context and
// continues to OnTrueNextNodeID or OnFalseNextNodeID.
type ConditionalDefinition struct {
	Condition         Condition `json:"condition" mapstructure:"condition"`
	OnTrueNextNodeID  string    `json:"on_true_next_node_id" mapstructure:"on_true_next_node_id"`
	OnFalseNextNodeID string    `json:"on_false_next_node_id" mapstructure:"on_false_next_node_id"`
}

func (ConditionalDefinition) nodeDefinition() {}

// JourneyNode is one node in a reusable graph. Nodes are created once,
// are immutable thereafter, and may be referenced by multiple journeys.
type JourneyNode struct {
	ID         string
	Type       NodeType
	Definition Definition
}

// ParseNode builds a typed JourneyNode from a raw decoded object of the wire
// shape {id, type, ...definition fields}. Unrecognized types are rejected
// with ErrUnknownNodeType so only the closed set ever reaches storage.
func ParseNode(raw map[string]any) (JourneyNode, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return JourneyNode{}, &ValidationError{Reason: "node id is required"}
	}
	typ, _ := raw["type"].(string)

	var def Definition
	switch NodeType(typ) {
	case NodeTypeLog:
		var d LogDefinition
		if err := decodeDefinition(raw, &d); err != nil {
			return JourneyNode{}, err
		}
		def = d
	case NodeTypeDelay:
		var d DelayDefinition
		if err := decodeDefinition(raw, &d); err != nil {
			return JourneyNode{}, err
		}
		def = d
	case NodeTypeConditional:
		var d ConditionalDefinition
		if err := decodeDefinition(raw, &d); err != nil {
			return JourneyNode{}, err
		}
		def = d
	default:
		return JourneyNode{}, fmt.Errorf("%w: %q (node %s)", ErrUnknownNodeType, typ, id)
	}

	return JourneyNode{ID: id, Type: NodeType(typ), Definition: def}, nil
}

func decodeDefinition(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("malformed node definition: %v", err)}
	}
	return nil
}

// MarshalJSON flattens the definition fields next to id and type, matching
// the wire shape accepted by ParseNode.
func (n JourneyNode) MarshalJSON() ([]byte, error) {
	payload := map[string]any{}
	if n.Definition != nil {
		if err := mapstructure.Decode(n.Definition, &payload); err != nil {
			return nil, err
		}
	}
	payload["id"] = n.ID
	payload["type"] = string(n.Type)
	return json.Marshal(payload)
}

// UnmarshalJSON decodes the flat wire shape back into a typed node.
func (n *JourneyNode) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	node, err := ParseNode(raw)
	if err != nil {
		return err
	}
	*n = node
	return nil
}
