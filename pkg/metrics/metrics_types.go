package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "topology"

// Registry holds all metrics of the refinement engine. A nil *Registry is
// valid and records nothing, so components can take one unconditionally.
type Registry struct {
	// Matching Metrics
	IsomorphismMatchesTotal *prometheus.CounterVec

	// Refinement Metrics
	RefinementCandidatesTotal *prometheus.CounterVec
	RefinementsAppliedTotal   *prometheus.CounterVec
	RefinementIterations      *prometheus.HistogramVec

	// Permutation Metrics
	PermutabilityChecksTotal   *prometheus.CounterVec
	PermutationsGeneratedTotal prometheus.Counter

	// Store Metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	namespace string
	registry  *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	return NewRegistryWithNamespace(DefaultNamespace)
}

// NewRegistryWithNamespace creates a registry whose metric names start with namespace.
func NewRegistryWithNamespace(namespace string) *Registry {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	r := &Registry{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
	}

	r.initMatchingMetrics()
	r.initRefinementMetrics()
	r.initPermutationMetrics()
	r.initStoreMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
