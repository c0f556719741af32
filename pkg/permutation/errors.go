package permutation

import (
	"errors"
)

// Sentinel errors
var (
	// ErrNotPermutable matches every NotPermutableError.
	ErrNotPermutable = errors.New("refinement model cannot be permuted")
	// ErrPersistence wraps store failures while variants are written.
	ErrPersistence = errors.New("permutation persistence failed")
)

// Diagnostics reported by the permutability check.
const (
	ReasonNoMappings          = "No permutation mappings could be identified"
	ReasonUnmappedDetector    = "There are detector nodes which could not be mapped to a refinement node: "
	ReasonUnmappedRefinement  = "There are refinement nodes which could not be mapped to a detector node: "
	ReasonUnredirectableEdges = "There are relations that cannot be redirected during the generation: "
)

// NotPermutableError explains why a model's permutations cannot be derived.
// Callers may fix the declared mappings and check again.
type NotPermutableError struct {
	Model  string
	Reason string
}

// Error returns the reason verbatim.
func (e *NotPermutableError) Error() string {
	return e.Reason
}

// Is reports whether target is ErrNotPermutable.
func (e *NotPermutableError) Is(target error) bool {
	return target == ErrNotPermutable
}
