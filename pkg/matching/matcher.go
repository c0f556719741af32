// Package matching decides whether a topology element may stand in for a
// detector element during isomorphism search.
package matching

import (
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Matcher is a pure compatibility predicate. The first argument is always the
// candidate from the topology, the second the detector element.
type Matcher interface {
	NodeCompatible(candidate, detector *topology.Node) bool
	EdgeCompatible(candidate, detector *topology.Edge) bool
}

// NamespaceChecker tells whether a namespace holds behavior patterns.
type NamespaceChecker interface {
	IsPatternNamespace(namespace string) bool
}

// NamespaceFunc adapts a function to NamespaceChecker.
type NamespaceFunc func(namespace string) bool

func (f NamespaceFunc) IsPatternNamespace(namespace string) bool { return f(namespace) }

// Funcs builds a Matcher from two functions. Nil functions accept everything.
type Funcs struct {
	Node func(candidate, detector *topology.Node) bool
	Edge func(candidate, detector *topology.Edge) bool
}

func (f Funcs) NodeCompatible(candidate, detector *topology.Node) bool {
	return f.Node == nil || f.Node(candidate, detector)
}

func (f Funcs) EdgeCompatible(candidate, detector *topology.Edge) bool {
	return f.Edge == nil || f.Edge(candidate, detector)
}

// TypeMatcher accepts candidates whose type equals or derives from the detector's type.
type TypeMatcher struct {
	Types *topology.Hierarchy
}

// NewTypeMatcher creates a TypeMatcher. A nil hierarchy only accepts equal types.
func NewTypeMatcher(types *topology.Hierarchy) *TypeMatcher {
	return &TypeMatcher{Types: types}
}

func (m *TypeMatcher) NodeCompatible(candidate, detector *topology.Node) bool {
	return TypeCompatible(m.Types, candidate.Type, detector.Type)
}

func (m *TypeMatcher) EdgeCompatible(candidate, detector *topology.Edge) bool {
	return TypeCompatible(m.Types, candidate.Type, detector.Type)
}
