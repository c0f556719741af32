// Package namespace decides which namespaces hold behavior patterns.
package namespace

import (
	"slices"
	"strings"
	"sync"
)

// Manager keeps the registered pattern namespaces. It is safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	namespaces map[string]struct{}
	prefixes   []string
}

// New creates a manager. A namespace is a pattern namespace when it is listed
// in namespaces or starts with one of prefixes.
func New(namespaces, prefixes []string) *Manager {
	m := &Manager{namespaces: make(map[string]struct{}, len(namespaces))}
	for _, ns := range namespaces {
		m.AddNamespace(ns)
	}
	for _, p := range prefixes {
		m.AddPrefix(p)
	}
	return m
}

// AddNamespace registers ns. Empty values are ignored.
func (m *Manager) AddNamespace(ns string) {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces[ns] = struct{}{}
}

// AddPrefix registers a namespace prefix. Empty values are ignored.
func (m *Manager) AddPrefix(prefix string) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.prefixes, prefix) {
		m.prefixes = append(m.prefixes, prefix)
	}
}

// IsPatternNamespace reports whether ns holds behavior patterns.
func (m *Manager) IsPatternNamespace(ns string) bool {
	if m == nil || ns == "" {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.namespaces[ns]; ok {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(ns, p) {
			return true
		}
	}
	return false
}

// Namespaces returns the registered namespaces in sorted order.
func (m *Manager) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.namespaces))
	for ns := range m.namespaces {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}
