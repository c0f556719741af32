// Package isomorphism enumerates embeddings of a detector graph into a topology.
//
// The search finds subgraph monomorphisms: detector nodes and edges map
// injectively onto topology nodes and edges, every detector edge (u, v) maps
// onto a topology edge between the images of u and v, and the topology may
// hold more edges than the detector. Results are produced one at a time, so
// callers can stop after the first match without paying for the rest.
package isomorphism

import (
	"cmp"
	"iter"
	"slices"

	"github.com/dd0wney/cluso-topology/pkg/matching"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Search is a single-pass backtracking enumeration. It is not safe for
// concurrent use and neither graph may change while it is being consumed.
type Search struct {
	detector *topology.Graph
	topo     *topology.Graph
	matcher  matching.Matcher

	order     []*topology.Node
	incident  map[string][]*topology.Edge
	topoNodes []*topology.Node
	detEdges  []*topology.Edge

	// node phase
	depth   int
	next    []int
	nodeMap map[string]string
	used    map[string]bool

	// edge phase, run for every complete node assignment
	inEdges   bool
	yielded   bool
	edgeDepth int
	edgeNext  []int
	edgeCands [][]*topology.Edge
	edgeMap   map[string]string
	edgeUsed  map[string]bool

	started bool
	done    bool
}

// FindMatches prepares a search for detector in topo. Nothing is computed
// until Next or All is called. An empty detector has no matches.
func FindMatches(detector, topo *topology.Graph, matcher matching.Matcher) *Search {
	if matcher == nil {
		matcher = matching.Funcs{}
	}
	return &Search{detector: detector, topo: topo, matcher: matcher}
}

// Next returns the next embedding, or false once the search is exhausted.
func (s *Search) Next() (*GraphMapping, bool) {
	if s.done {
		return nil, false
	}
	if !s.started {
		s.started = true
		if !s.init() {
			s.done = true
			return nil, false
		}
	}

	for {
		if s.inEdges {
			if s.yielded {
				s.popEdge()
			}
			if s.advanceEdges() {
				s.yielded = true
				return s.snapshot(), true
			}
			s.inEdges = false
			s.popNode()
			continue
		}
		if !s.advanceNodes() {
			s.done = true
			return nil, false
		}
		s.enterEdgePhase()
	}
}

// All yields the remaining embeddings. Breaking out of the loop stops the search.
func (s *Search) All() iter.Seq[*GraphMapping] {
	return func(yield func(*GraphMapping) bool) {
		for {
			m, ok := s.Next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}

// Collect drains the search.
func (s *Search) Collect() []*GraphMapping {
	return slices.Collect(s.All())
}

func (s *Search) init() bool {
	if s.detector == nil || s.topo == nil || s.detector.NodeCount() == 0 {
		return false
	}
	if s.detector.NodeCount() > s.topo.NodeCount() || s.detector.EdgeCount() > s.topo.EdgeCount() {
		return false
	}

	// Highly connected detector nodes first: they have the fewest candidates.
	s.order = s.detector.Nodes()
	degree := make(map[string]int, len(s.order))
	for _, n := range s.order {
		degree[n.ID] = s.detector.Degree(n.ID)
	}
	slices.SortStableFunc(s.order, func(a, b *topology.Node) int {
		if c := cmp.Compare(degree[b.ID], degree[a.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	s.detEdges = s.detector.Edges()
	s.incident = make(map[string][]*topology.Edge, len(s.order))
	for _, e := range s.detEdges {
		s.incident[e.Source] = append(s.incident[e.Source], e)
		if e.Target != e.Source {
			s.incident[e.Target] = append(s.incident[e.Target], e)
		}
	}
	s.topoNodes = s.topo.Nodes()

	s.next = make([]int, len(s.order))
	s.nodeMap = make(map[string]string, len(s.order))
	s.used = make(map[string]bool, len(s.order))
	s.edgeNext = make([]int, len(s.detEdges))
	s.edgeCands = make([][]*topology.Edge, len(s.detEdges))
	s.edgeMap = make(map[string]string, len(s.detEdges))
	s.edgeUsed = make(map[string]bool, len(s.detEdges))
	return true
}

// advanceNodes extends the node assignment until it is complete (true) or
// every alternative is exhausted (false).
func (s *Search) advanceNodes() bool {
	for s.depth >= 0 {
		if s.depth == len(s.order) {
			return true
		}
		d := s.order[s.depth]
		extended := false
		for s.next[s.depth] < len(s.topoNodes) {
			c := s.topoNodes[s.next[s.depth]]
			s.next[s.depth]++
			if s.used[c.ID] || !s.matcher.NodeCompatible(c, d) || !s.adjacent(d.ID, c.ID) {
				continue
			}
			s.nodeMap[d.ID] = c.ID
			s.used[c.ID] = true
			s.depth++
			if s.depth < len(s.order) {
				s.next[s.depth] = 0
			}
			extended = true
			break
		}
		if !extended {
			s.depth--
			if s.depth < 0 {
				return false
			}
			s.unassignNode(s.order[s.depth])
		}
	}
	return false
}

// adjacent checks that every detector edge between d and an already mapped
// node has at least one compatible counterpart when d is mapped to c.
func (s *Search) adjacent(d, c string) bool {
	image := func(id string) (string, bool) {
		if id == d {
			return c, true
		}
		t, ok := s.nodeMap[id]
		return t, ok
	}
	for _, e := range s.incident[d] {
		src, ok := image(e.Source)
		if !ok {
			continue
		}
		tgt, ok := image(e.Target)
		if !ok {
			continue
		}
		if !s.hasCompatibleEdge(e, src, tgt) {
			return false
		}
	}
	return true
}

func (s *Search) hasCompatibleEdge(d *topology.Edge, src, tgt string) bool {
	for _, e := range s.topo.EdgesBetween(src, tgt) {
		if s.matcher.EdgeCompatible(e, d) {
			return true
		}
	}
	return false
}

func (s *Search) popNode() {
	s.depth--
	s.unassignNode(s.order[s.depth])
}

func (s *Search) unassignNode(d *topology.Node) {
	delete(s.used, s.nodeMap[d.ID])
	delete(s.nodeMap, d.ID)
}

func (s *Search) enterEdgePhase() {
	s.inEdges = true
	s.yielded = false
	s.edgeDepth = 0
	if len(s.detEdges) > 0 {
		s.loadEdgeCandidates(0)
	}
}

func (s *Search) loadEdgeCandidates(depth int) {
	e := s.detEdges[depth]
	s.edgeNext[depth] = 0
	s.edgeCands[depth] = s.topo.EdgesBetween(s.nodeMap[e.Source], s.nodeMap[e.Target])
}

// advanceEdges assigns distinct topology edges to every detector edge.
func (s *Search) advanceEdges() bool {
	for s.edgeDepth >= 0 {
		if s.edgeDepth == len(s.detEdges) {
			return true
		}
		d := s.detEdges[s.edgeDepth]
		cands := s.edgeCands[s.edgeDepth]
		extended := false
		for s.edgeNext[s.edgeDepth] < len(cands) {
			c := cands[s.edgeNext[s.edgeDepth]]
			s.edgeNext[s.edgeDepth]++
			if s.edgeUsed[c.ID] || !s.matcher.EdgeCompatible(c, d) {
				continue
			}
			s.edgeMap[d.ID] = c.ID
			s.edgeUsed[c.ID] = true
			s.edgeDepth++
			if s.edgeDepth < len(s.detEdges) {
				s.loadEdgeCandidates(s.edgeDepth)
			}
			extended = true
			break
		}
		if !extended {
			s.edgeDepth--
			if s.edgeDepth < 0 {
				return false
			}
			s.unassignEdge(s.detEdges[s.edgeDepth])
		}
	}
	return false
}

func (s *Search) popEdge() {
	s.edgeDepth--
	if s.edgeDepth >= 0 {
		s.unassignEdge(s.detEdges[s.edgeDepth])
	}
}

func (s *Search) unassignEdge(d *topology.Edge) {
	delete(s.edgeUsed, s.edgeMap[d.ID])
	delete(s.edgeMap, d.ID)
}

func (s *Search) snapshot() *GraphMapping {
	m := newGraphMapping(len(s.order), len(s.detEdges))
	for _, n := range s.order {
		m.addNode(n.ID, s.nodeMap[n.ID])
	}
	for _, e := range s.detEdges {
		m.addEdge(e.ID, s.edgeMap[e.ID])
	}
	return m
}
