package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initMatchingMetrics() {
	r.IsomorphismMatchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "isomorphism_matches_total",
			Help:      "Total number of detector embeddings found in topologies",
		},
		[]string{"detector"},
	)
}

func (r *Registry) initRefinementMetrics() {
	r.RefinementCandidatesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "refinement_candidates_total",
			Help:      "Total number of refinement candidates offered to the chooser",
		},
		[]string{"kind"},
	)

	r.RefinementsAppliedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "refinements_applied_total",
			Help:      "Total number of refinement candidates applied to a topology",
		},
		[]string{"kind"},
	)

	r.RefinementIterations = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "refinement_iterations",
			Help:      "Number of search iterations per refinement run",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)
}

func (r *Registry) initPermutationMetrics() {
	r.PermutabilityChecksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "permutability_checks_total",
			Help:      "Total number of permutability checks by result",
		},
		[]string{"result"},
	)

	r.PermutationsGeneratedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "permutations_generated_total",
			Help:      "Total number of permutation variants generated",
		},
	)
}
