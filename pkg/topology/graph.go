package topology

import (
	"strconv"
)

// Graph is a typed directed multigraph. Nodes and edges live in dense
// insertion-ordered tables; every cross reference is an ID.
type Graph struct {
	nodes     []*Node
	edges     []*Edge
	nodeIndex map[string]int
	edgeIndex map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[string]int),
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddNode stores a copy of n. IDs are unique across nodes and edges.
func (g *Graph) AddNode(n Node) (*Node, error) {
	g.init()
	if n.ID == "" {
		return nil, NewError("AddNode").Node(n.ID).Cause(ErrEmptyID).Err()
	}
	if g.idTaken(n.ID) {
		return nil, NewError("AddNode").Node(n.ID).Cause(ErrDuplicateID).Err()
	}
	stored := n.Clone()
	g.nodeIndex[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, stored)
	return stored, nil
}

// AddEdge stores a copy of e. Both endpoints must already be in the graph.
func (g *Graph) AddEdge(e Edge) (*Edge, error) {
	g.init()
	if e.ID == "" {
		return nil, NewError("AddEdge").Edge(e.ID).Cause(ErrEmptyID).Err()
	}
	if g.idTaken(e.ID) {
		return nil, NewError("AddEdge").Edge(e.ID).Cause(ErrDuplicateID).Err()
	}
	if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
		return nil, NewError("AddEdge").Edge(e.ID).Cause(ErrDanglingEdge).Err()
	}
	stored := e.Clone()
	g.edgeIndex[e.ID] = len(g.edges)
	g.edges = append(g.edges, stored)
	return stored, nil
}

// Connect adds an edge of type t from source to target under a generated ID.
func (g *Graph) Connect(source, target string, t QName) (*Edge, error) {
	return g.AddEdge(Edge{
		ID:     g.UniqueID("con_" + t.Local),
		Type:   t,
		Source: source,
		Target: target,
	})
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (*Edge, bool) {
	i, ok := g.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return g.edges[i], true
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

func (g *Graph) HasEdge(id string) bool {
	_, ok := g.edgeIndex[id]
	return ok
}

// Nodes returns the nodes in insertion order. The slice is a copy, the nodes are not.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeIDs returns node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.ID
	}
	return out
}

// Incoming returns edges whose target is id, in insertion order.
func (g *Graph) Incoming(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns edges whose source is id, in insertion order.
func (g *Graph) Outgoing(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesBetween returns edges from source to target.
func (g *Graph) EdgesBetween(source, target string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == source && e.Target == target {
			out = append(out, e)
		}
	}
	return out
}

// Degree returns in-degree plus out-degree. Self loops count twice.
func (g *Graph) Degree(id string) int {
	d := 0
	for _, e := range g.edges {
		if e.Source == id {
			d++
		}
		if e.Target == id {
			d++
		}
	}
	return d
}

// RemoveEdge deletes an edge.
func (g *Graph) RemoveEdge(id string) error {
	i, ok := g.edgeIndex[id]
	if !ok {
		return EdgeNotFoundError("RemoveEdge", id)
	}
	g.edges = append(g.edges[:i], g.edges[i+1:]...)
	delete(g.edgeIndex, id)
	for j := i; j < len(g.edges); j++ {
		g.edgeIndex[g.edges[j].ID] = j
	}
	return nil
}

// RemoveNode deletes a node together with every incident edge and returns the removed edges.
func (g *Graph) RemoveNode(id string) ([]*Edge, error) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, NodeNotFoundError("RemoveNode", id)
	}

	var removed []*Edge
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source == id || e.Target == id {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	for j := len(kept); j < len(g.edges); j++ {
		g.edges[j] = nil
	}
	g.edges = kept
	g.reindexEdges()

	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
	delete(g.nodeIndex, id)
	for j := i; j < len(g.nodes); j++ {
		g.nodeIndex[g.nodes[j].ID] = j
	}
	return removed, nil
}

// RetargetEdge moves one endpoint of an edge. Empty arguments keep the current endpoint.
func (g *Graph) RetargetEdge(id, source, target string) error {
	e, ok := g.Edge(id)
	if !ok {
		return EdgeNotFoundError("RetargetEdge", id)
	}
	if source == "" {
		source = e.Source
	}
	if target == "" {
		target = e.Target
	}
	if !g.HasNode(source) || !g.HasNode(target) {
		return NewError("RetargetEdge").Edge(id).Cause(ErrDanglingEdge).Err()
	}
	e.Source, e.Target = source, target
	return nil
}

// UniqueID returns prefix_N for the smallest N not used by any node or edge.
func (g *Graph) UniqueID(prefix string) string {
	if prefix == "" {
		prefix = "element"
	}
	for n := 0; ; n++ {
		id := prefix + "_" + strconv.Itoa(n)
		if !g.idTaken(id) {
			return id
		}
	}
}

// Clone returns a deep copy sharing nothing with g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make([]*Node, len(g.nodes)),
		edges:     make([]*Edge, len(g.edges)),
		nodeIndex: make(map[string]int, len(g.nodeIndex)),
		edgeIndex: make(map[string]int, len(g.edgeIndex)),
	}
	for i, n := range g.nodes {
		c.nodes[i] = n.Clone()
		c.nodeIndex[n.ID] = i
	}
	for i, e := range g.edges {
		c.edges[i] = e.Clone()
		c.edgeIndex[e.ID] = i
	}
	return c
}

func (g *Graph) init() {
	if g.nodeIndex == nil {
		g.nodeIndex = make(map[string]int)
	}
	if g.edgeIndex == nil {
		g.edgeIndex = make(map[string]int)
	}
}

func (g *Graph) idTaken(id string) bool {
	return g.HasNode(id) || g.HasEdge(id)
}

func (g *Graph) reindexEdges() {
	clear(g.edgeIndex)
	for i, e := range g.edges {
		g.edgeIndex[e.ID] = i
	}
}
