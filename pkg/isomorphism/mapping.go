package isomorphism

import (
	"iter"
)

// GraphMapping is one embedding of a detector into a topology. It maps
// detector node and edge IDs to topology IDs and back. It only holds IDs, so
// it goes stale once the topology is modified.
type GraphMapping struct {
	nodes     map[string]string
	nodesInv  map[string]string
	edges     map[string]string
	edgesInv  map[string]string
	nodeOrder []string
	edgeOrder []string
}

func newGraphMapping(nodes, edges int) *GraphMapping {
	return &GraphMapping{
		nodes:    make(map[string]string, nodes),
		nodesInv: make(map[string]string, nodes),
		edges:    make(map[string]string, edges),
		edgesInv: make(map[string]string, edges),
	}
}

func (m *GraphMapping) addNode(detector, topology string) {
	m.nodes[detector] = topology
	m.nodesInv[topology] = detector
	m.nodeOrder = append(m.nodeOrder, detector)
}

func (m *GraphMapping) addEdge(detector, topology string) {
	m.edges[detector] = topology
	m.edgesInv[topology] = detector
	m.edgeOrder = append(m.edgeOrder, detector)
}

// Node returns the topology node matched to a detector node.
func (m *GraphMapping) Node(detectorID string) (string, bool) {
	id, ok := m.nodes[detectorID]
	return id, ok
}

// Edge returns the topology edge matched to a detector edge.
func (m *GraphMapping) Edge(detectorID string) (string, bool) {
	id, ok := m.edges[detectorID]
	return id, ok
}

// DetectorNode returns the detector node a topology node was matched by.
func (m *GraphMapping) DetectorNode(topologyID string) (string, bool) {
	id, ok := m.nodesInv[topologyID]
	return id, ok
}

// DetectorEdge returns the detector edge a topology edge was matched by.
func (m *GraphMapping) DetectorEdge(topologyID string) (string, bool) {
	id, ok := m.edgesInv[topologyID]
	return id, ok
}

// NodeCount returns the number of mapped nodes.
func (m *GraphMapping) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of mapped edges.
func (m *GraphMapping) EdgeCount() int { return len(m.edges) }

// Nodes yields (detector, topology) node pairs in search order.
func (m *GraphMapping) Nodes() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, d := range m.nodeOrder {
			if !yield(d, m.nodes[d]) {
				return
			}
		}
	}
}

// Edges yields (detector, topology) edge pairs in detector insertion order.
func (m *GraphMapping) Edges() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, d := range m.edgeOrder {
			if !yield(d, m.edges[d]) {
				return
			}
		}
	}
}

// TopologyNodes returns the matched topology node IDs in search order.
func (m *GraphMapping) TopologyNodes() []string {
	out := make([]string, 0, len(m.nodeOrder))
	for _, d := range m.nodeOrder {
		out = append(out, m.nodes[d])
	}
	return out
}
