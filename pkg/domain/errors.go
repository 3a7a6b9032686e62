package domain

import "errors"

// ErrJourneyNotFound is returned when a journey ID cannot be found in the store.
var ErrJourneyNotFound = errors.New("journey not found")

// ErrNodeNotFound is returned when a node ID cannot be found in the store.
var ErrNodeNotFound = errors.New("node not found")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrRunFinished is returned when a mutation targets a run that already
// reached a terminal state. Terminal states are absorbing.
var ErrRunFinished = errors.New("run already finished")

// ErrUnknownNodeType is returned when persisted node data carries a type
// outside the closed LOG/DELAY/CONDITIONAL set.
var ErrUnknownNodeType = errors.New("unknown node type")

// ValidationError marks a malformed journey definition, surfaced to the
// caller at creation time. The engine never sees one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid journey: " + e.Reason
}
