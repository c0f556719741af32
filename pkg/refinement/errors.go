package refinement

import "errors"

var (
	// ErrInvalidCandidate is returned when a chosen candidate was not offered
	// in the current iteration or no longer matches the topology.
	ErrInvalidCandidate = errors.New("invalid refinement candidate")
	// ErrIterationLimit is returned when the loop condition still holds after
	// the configured number of iterations.
	ErrIterationLimit = errors.New("refinement iteration limit reached")
	// ErrNoModels is returned by Run when no refinement model of the required kind is available.
	ErrNoModels = errors.New("no refinement models available")
)
