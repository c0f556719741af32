package metrics

import (
	"time"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Permutability check results.
const (
	ResultPermutable    = "permutable"
	ResultNotPermutable = "not_permutable"
)

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// RecordMatch counts one embedding of the named detector.
func (r *Registry) RecordMatch(detector string) {
	if r == nil {
		return
	}
	r.IsomorphismMatchesTotal.WithLabelValues(detector).Inc()
}

// RecordCandidates counts candidates found in one iteration.
func (r *Registry) RecordCandidates(kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.RefinementCandidatesTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordApplied counts one applied refinement.
func (r *Registry) RecordApplied(kind string) {
	if r == nil {
		return
	}
	r.RefinementsAppliedTotal.WithLabelValues(kind).Inc()
}

// RecordRun observes how many iterations a refinement run took.
func (r *Registry) RecordRun(kind string, iterations int) {
	if r == nil {
		return
	}
	r.RefinementIterations.WithLabelValues(kind).Observe(float64(iterations))
}

// RecordPermutabilityCheck counts one check outcome.
func (r *Registry) RecordPermutabilityCheck(permutable bool) {
	if r == nil {
		return
	}
	result := ResultNotPermutable
	if permutable {
		result = ResultPermutable
	}
	r.PermutabilityChecksTotal.WithLabelValues(result).Inc()
}

// RecordPermutationGenerated counts one persisted variant.
func (r *Registry) RecordPermutationGenerated() {
	if r == nil {
		return
	}
	r.PermutationsGeneratedTotal.Inc()
}

// RecordStoreOperation records a store operation
func (r *Registry) RecordStoreOperation(backend, operation, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.StoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}
