package topology

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildRandomGraph creates n nodes and one edge per (from, to) pair, modulo n.
func buildRandomGraph(n int, pairs []int) *Graph {
	g := New()
	for i := 0; i < n; i++ {
		g.AddNode(Node{ID: fmt.Sprintf("n%d", i), Type: NewQName("http://ex.org", "T")})
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		g.AddEdge(Edge{
			ID:     fmt.Sprintf("e%d", i/2),
			Type:   hostedOn,
			Source: fmt.Sprintf("n%d", pairs[i]%n),
			Target: fmt.Sprintf("n%d", pairs[i+1]%n),
		})
	}
	return g
}

// TestGraphInvariants checks structural invariants under random construction and removal.
func TestGraphInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("edge endpoints always reference nodes in the graph", prop.ForAll(
		func(n int, pairs []int, victim int) bool {
			g := buildRandomGraph(n, pairs)
			g.RemoveNode(fmt.Sprintf("n%d", victim%n))
			for _, e := range g.Edges() {
				if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.SliceOf(gen.IntRange(0, 100)),
		gen.IntRange(0, 100),
	))

	properties.Property("clone converts to the same template", prop.ForAll(
		func(n int, pairs []int) bool {
			g := buildRandomGraph(n, pairs)
			return reflect.DeepEqual(g.Template(), g.Clone().Template())
		},
		gen.IntRange(1, 8),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.Property("template round trip is lossless", prop.ForAll(
		func(n int, pairs []int) bool {
			g := buildRandomGraph(n, pairs)
			back, err := FromTemplate(g.Template())
			if err != nil {
				return false
			}
			return reflect.DeepEqual(g.Template(), back.Template())
		},
		gen.IntRange(1, 8),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.Property("degree sums to twice the edge count", prop.ForAll(
		func(n int, pairs []int) bool {
			g := buildRandomGraph(n, pairs)
			sum := 0
			for _, id := range g.NodeIDs() {
				sum += g.Degree(id)
			}
			return sum == 2*g.EdgeCount()
		},
		gen.IntRange(1, 8),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
