package namespace

import (
	"sync"
	"testing"

	"github.com/dd0wney/cluso-topology/pkg/matching"
)

var _ matching.NamespaceChecker = (*Manager)(nil)

func TestIsPatternNamespace(t *testing.T) {
	m := New(
		[]string{"http://ex.org/patterns", " "},
		[]string{"http://patterns.ex.org/"},
	)

	tests := []struct {
		ns   string
		want bool
	}{
		{"http://ex.org/patterns", true},
		{"http://ex.org/patterns/sub", false},
		{"http://patterns.ex.org/cloud", true},
		{"http://ex.org", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ns, func(t *testing.T) {
			if got := m.IsPatternNamespace(tt.ns); got != tt.want {
				t.Errorf("IsPatternNamespace(%q) = %v, want %v", tt.ns, got, tt.want)
			}
		})
	}

	if got := m.Namespaces(); len(got) != 1 {
		t.Errorf("expected blank namespaces to be ignored, got %v", got)
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.IsPatternNamespace("http://ex.org/patterns") {
		t.Error("nil manager must not report pattern namespaces")
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.AddPrefix("http://p/")
		}()
		go func() {
			defer wg.Done()
			_ = m.IsPatternNamespace("http://p/x")
		}()
	}
	wg.Wait()
	if !m.IsPatternNamespace("http://p/x") {
		t.Error("prefix not registered")
	}
}
