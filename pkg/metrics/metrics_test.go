package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.IsomorphismMatchesTotal == nil {
		t.Error("IsomorphismMatchesTotal not initialized")
	}
	if r.RefinementIterations == nil {
		t.Error("RefinementIterations not initialized")
	}
	if r.PermutationsGeneratedTotal == nil {
		t.Error("PermutationsGeneratedTotal not initialized")
	}
	if r.StoreOperationDuration == nil {
		t.Error("StoreOperationDuration not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry

	r.RecordMatch("d")
	r.RecordCandidates("fragment", 3)
	r.RecordApplied("fragment")
	r.RecordRun("fragment", 2)
	r.RecordPermutabilityCheck(true)
	r.RecordPermutationGenerated()
	r.RecordStoreOperation("memory", "get", StatusSuccess, time.Millisecond)

	if r.GetPrometheusRegistry() != nil {
		t.Error("nil registry should expose no Prometheus registry")
	}
}

func TestRecordRefinement(t *testing.T) {
	r := NewRegistry()

	r.RecordMatch("{http://ex.org}app-on-host")
	r.RecordMatch("{http://ex.org}app-on-host")
	r.RecordCandidates("fragment", 2)
	r.RecordCandidates("fragment", 0)
	r.RecordApplied("fragment")

	if got := counterValue(t, r.IsomorphismMatchesTotal.WithLabelValues("{http://ex.org}app-on-host")); got != 2 {
		t.Errorf("matches = %v, want 2", got)
	}
	if got := counterValue(t, r.RefinementCandidatesTotal.WithLabelValues("fragment")); got != 2 {
		t.Errorf("candidates = %v, want 2", got)
	}
	if got := counterValue(t, r.RefinementsAppliedTotal.WithLabelValues("fragment")); got != 1 {
		t.Errorf("applied = %v, want 1", got)
	}
}

func TestRecordPermutability(t *testing.T) {
	r := NewRegistry()

	r.RecordPermutabilityCheck(true)
	r.RecordPermutabilityCheck(false)
	r.RecordPermutabilityCheck(false)
	r.RecordPermutationGenerated()

	if got := counterValue(t, r.PermutabilityChecksTotal.WithLabelValues(ResultPermutable)); got != 1 {
		t.Errorf("permutable = %v, want 1", got)
	}
	if got := counterValue(t, r.PermutabilityChecksTotal.WithLabelValues(ResultNotPermutable)); got != 2 {
		t.Errorf("not permutable = %v, want 2", got)
	}
	if got := counterValue(t, r.PermutationsGeneratedTotal); got != 1 {
		t.Errorf("generated = %v, want 1", got)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	r := NewRegistry()

	r.RecordStoreOperation("file", "set", Status(nil), 10*time.Millisecond)
	r.RecordStoreOperation("file", "set", Status(nil), 20*time.Millisecond)
	r.RecordStoreOperation("file", "set", Status(errors.New("disk full")), 5*time.Millisecond)

	if got := counterValue(t, r.StoreOperationsTotal.WithLabelValues("file", "set", StatusSuccess)); got != 2 {
		t.Errorf("Success counter = %v, want 2", got)
	}
	if got := counterValue(t, r.StoreOperationsTotal.WithLabelValues("file", "set", StatusError)); got != 1 {
		t.Errorf("Error counter = %v, want 1", got)
	}

	histogram, err := r.StoreOperationDuration.GetMetricWithLabelValues("file", "set")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
	sum := metric.Histogram.GetSampleSum()
	if sum < 0.034 || sum > 0.036 {
		t.Errorf("Sample sum = %v, want ~0.035", sum)
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()
	r.RecordRun("pattern", 3)
	r.RecordRun("pattern", 1)

	histogram, err := r.RefinementIterations.GetMetricWithLabelValues("pattern")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleSum() != 4 {
		t.Errorf("Sample sum = %v, want 4", metric.Histogram.GetSampleSum())
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordMatch("d")
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if got := counterValue(t, r.IsomorphismMatchesTotal.WithLabelValues("d")); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	tests := []struct {
		namespace string
		prefix    string
	}{
		{"", "topology_"},
		{"winery", "winery_"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			r := NewRegistryWithNamespace(tt.namespace)
			r.RecordMatch("d")
			r.RecordCandidates("fragment", 1)
			r.RecordApplied("fragment")
			r.RecordRun("fragment", 1)
			r.RecordPermutabilityCheck(true)
			r.RecordStoreOperation("memory", "get", StatusSuccess, time.Millisecond)

			metrics, err := r.GetPrometheusRegistry().Gather()
			if err != nil {
				t.Fatalf("Failed to gather metrics: %v", err)
			}
			if len(metrics) != 8 {
				t.Errorf("gathered %d metric families, want 8", len(metrics))
			}
			for _, m := range metrics {
				if !strings.HasPrefix(m.GetName(), tt.prefix) {
					t.Errorf("Metric %s does not have %s prefix", m.GetName(), tt.prefix)
				}
			}
		})
	}
}

func BenchmarkRecordStoreOperation(b *testing.B) {
	r := NewRegistry()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r.RecordStoreOperation("memory", "get", StatusSuccess, time.Millisecond)
	}
}
