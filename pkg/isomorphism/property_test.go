package isomorphism

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-topology/pkg/matching"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

var kinds = []topology.QName{serverType, appType}

// randomTopology builds n nodes with alternating types and one edge per pair.
func randomTopology(n int, pairs []int) *topology.Graph {
	g := topology.New()
	for i := 0; i < n; i++ {
		g.AddNode(topology.Node{ID: fmt.Sprintf("t%d", i), Type: kinds[i%len(kinds)]})
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		typ := hostedOn
		if pairs[i]%3 == 0 {
			typ = connectsTo
		}
		g.AddEdge(topology.Edge{
			ID:     fmt.Sprintf("te%d", i/2),
			Type:   typ,
			Source: fmt.Sprintf("t%d", pairs[i]%n),
			Target: fmt.Sprintf("t%d", pairs[i+1]%n),
		})
	}
	return g
}

// fragment copies the first k nodes of g and the edges among them under new IDs.
func fragment(g *topology.Graph, k int) *topology.Graph {
	d := topology.New()
	keep := map[string]string{}
	for i, n := range g.Nodes() {
		if i >= k {
			break
		}
		id := "d" + n.ID
		keep[n.ID] = id
		d.AddNode(topology.Node{ID: id, Type: n.Type})
	}
	for _, e := range g.Edges() {
		s, ok1 := keep[e.Source]
		t, ok2 := keep[e.Target]
		if ok1 && ok2 {
			d.AddEdge(topology.Edge{ID: "d" + e.ID, Type: e.Type, Source: s, Target: t})
		}
	}
	return d
}

func sound(detector, topo *topology.Graph, m *GraphMapping, matcher matching.Matcher) bool {
	if m.NodeCount() != detector.NodeCount() || m.EdgeCount() != detector.EdgeCount() {
		return false
	}
	seen := map[string]bool{}
	for d, t := range m.Nodes() {
		dn, _ := detector.Node(d)
		tn, ok := topo.Node(t)
		if !ok || seen[t] || !matcher.NodeCompatible(tn, dn) {
			return false
		}
		seen[t] = true
	}
	for d, t := range m.Edges() {
		de, _ := detector.Edge(d)
		te, ok := topo.Edge(t)
		if !ok || seen[t] || !matcher.EdgeCompatible(te, de) {
			return false
		}
		seen[t] = true
		src, _ := m.Node(de.Source)
		tgt, _ := m.Node(de.Target)
		if te.Source != src || te.Target != tgt {
			return false
		}
	}
	return true
}

func TestSearchProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60

	properties := gopter.NewProperties(parameters)
	matcher := matching.NewTypeMatcher(nil)

	properties.Property("every embedding preserves adjacency and compatibility", prop.ForAll(
		func(n int, pairs []int, k int) bool {
			topo := randomTopology(n, pairs)
			detector := fragment(topo, 1+k%n)
			count := 0
			for m := range FindMatches(detector, topo, matcher).All() {
				if !sound(detector, topo, m, matcher) {
					return false
				}
				count++
				if count > 200 {
					break
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.SliceOfN(10, gen.IntRange(0, 50)),
		gen.IntRange(0, 5),
	))

	properties.Property("a copied fragment is always found", prop.ForAll(
		func(n int, pairs []int, k int) bool {
			topo := randomTopology(n, pairs)
			detector := fragment(topo, 1+k%n)
			for m := range FindMatches(detector, topo, matcher).All() {
				identity := true
				for d, t := range m.Nodes() {
					if d != "d"+t {
						identity = false
						break
					}
				}
				if identity {
					return true
				}
			}
			return false
		},
		gen.IntRange(1, 6),
		gen.SliceOfN(10, gen.IntRange(0, 50)),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
