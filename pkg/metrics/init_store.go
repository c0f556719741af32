package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "store_operations_total",
			Help:      "Total number of topology store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Topology store operation duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"backend", "operation"},
	)
}
