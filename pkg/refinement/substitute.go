package refinement

import (
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// substitution replaces one matched detector occurrence with a copy of the
// refinement structure.
type substitution struct {
	c      *Candidate
	topo   *topology.Graph
	types  *topology.Hierarchy
	logger logging.Logger

	// refinement node ID -> topology node ID, covering copies and stays
	placed map[string]string
	// refinement edge ID -> topology edge ID, covering copies, reused and staying edges
	placedEdges map[string]string
}

func newSubstitution(c *Candidate, topo *topology.Graph, types *topology.Hierarchy, logger logging.Logger) *substitution {
	return &substitution{
		c:           c,
		topo:        topo,
		types:       types,
		logger:      logger,
		placed:      map[string]string{},
		placedEdges: map[string]string{},
	}
}

// apply runs every substitution step. Behavior markers are handled by the caller afterwards.
func (s *substitution) apply() error {
	if err := s.checkMatched(); err != nil {
		return err
	}
	s.placeStays()
	if err := s.insertNodes(); err != nil {
		return err
	}
	if err := s.insertEdges(); err != nil {
		return err
	}
	s.transferAttributes()
	s.transferArtifacts()
	if err := s.redirectExternalRelations(); err != nil {
		return err
	}
	return s.removeMatched()
}

// checkMatched fails when an element the candidate matched is gone, so a
// stale candidate is rejected before the topology changes.
func (s *substitution) checkMatched() error {
	for d, t := range s.c.Mapping.Nodes() {
		if !s.topo.HasNode(t) {
			return fmt.Errorf("%w: node %q matched by %q is no longer in the topology", ErrInvalidCandidate, t, d)
		}
	}
	for d, t := range s.c.Mapping.Edges() {
		if !s.topo.HasEdge(t) {
			return fmt.Errorf("%w: edge %q matched by %q is no longer in the topology", ErrInvalidCandidate, t, d)
		}
	}
	return nil
}

func (s *substitution) placeStays() {
	for _, stay := range model.MappingsOf[*model.StayMapping](s.c.Model) {
		switch {
		case stay.DetectorElement.IsNode():
			if t, ok := s.c.Mapping.Node(stay.DetectorElement.ID); ok {
				s.placed[stay.RefinementElement.ID] = t
			}
		case stay.DetectorElement.IsEdge() && stay.RefinementElement.IsEdge():
			if t, ok := s.c.Mapping.Edge(stay.DetectorElement.ID); ok {
				s.placedEdges[stay.RefinementElement.ID] = t
			}
		}
	}
}

// freshID keeps the refinement ID when the topology does not use it yet.
func (s *substitution) freshID(id string) string {
	if !s.topo.HasNode(id) && !s.topo.HasEdge(id) {
		return id
	}
	return s.topo.UniqueID(id)
}

func (s *substitution) insertNodes() error {
	for _, r := range s.c.Model.RefinementStructure.Nodes() {
		if t, ok := s.placed[r.ID]; ok {
			kept, _ := s.topo.Node(t)
			mergeMarkers(kept, r.Policies)
			continue
		}
		n := r.Clone()
		n.ID = s.freshID(r.ID)
		if _, err := s.topo.AddNode(*n); err != nil {
			return err
		}
		s.placed[r.ID] = n.ID
	}
	return nil
}

func (s *substitution) insertEdges() error {
	for _, r := range s.c.Model.RefinementStructure.Edges() {
		if s.c.Model.IsStayingRefinementElement(r.ID) {
			continue
		}
		src, tgt := s.placed[r.Source], s.placed[r.Target]
		if i := slices.IndexFunc(s.topo.EdgesBetween(src, tgt), func(e *topology.Edge) bool {
			return e.Type == r.Type && s.isKeptEdge(e.ID)
		}); i >= 0 {
			s.placedEdges[r.ID] = s.topo.EdgesBetween(src, tgt)[i].ID
			continue
		}
		e := r.Clone()
		e.ID = s.freshID(r.ID)
		e.Source, e.Target = src, tgt
		if _, err := s.topo.AddEdge(*e); err != nil {
			return err
		}
		s.placedEdges[r.ID] = e.ID
	}
	return nil
}

// isKeptEdge reports whether a topology edge survives the substitution: it
// is either unmatched or matched by a staying detector edge.
func (s *substitution) isKeptEdge(id string) bool {
	d, matched := s.c.Mapping.DetectorEdge(id)
	return !matched || s.c.Model.IsStayPlaceholder(d)
}

func (s *substitution) matchedNode(detectorID string) (*topology.Node, bool) {
	t, ok := s.c.Mapping.Node(detectorID)
	if !ok {
		return nil, false
	}
	return s.topo.Node(t)
}

func (s *substitution) placedNode(refinementID string) (*topology.Node, bool) {
	t, ok := s.placed[refinementID]
	if !ok {
		return nil, false
	}
	return s.topo.Node(t)
}

// placedPolicies returns the behavior markers of the topology element a
// refinement element was placed on, together with its ID.
func (s *substitution) placedPolicies(ref model.ElementRef) (*[]topology.Policy, string, bool) {
	if ref.IsEdge() {
		t, ok := s.placedEdges[ref.ID]
		if !ok {
			return nil, "", false
		}
		e, ok := s.topo.Edge(t)
		if !ok {
			return nil, "", false
		}
		return &e.Policies, e.ID, true
	}
	n, ok := s.placedNode(ref.ID)
	if !ok {
		return nil, "", false
	}
	return &n.Policies, n.ID, true
}

func (s *substitution) transferAttributes() {
	for _, am := range model.MappingsOf[*model.AttributeMapping](s.c.Model) {
		src, ok := s.matchedNode(am.DetectorElement.ID)
		if !ok {
			continue
		}
		dst, ok := s.placedNode(am.RefinementElement.ID)
		if !ok {
			continue
		}
		switch am.Mode {
		case model.AttributeAll:
			for k, v := range src.Properties {
				if _, declared := dst.Properties[k]; declared {
					dst.Properties[k] = v
				}
			}
		case model.AttributeSelective:
			v, ok := src.Property(am.DetectorProperty)
			if !ok {
				continue
			}
			key := am.RefinementProperty
			if key == "" {
				key = am.DetectorProperty
			}
			dst.SetProperty(key, v)
		}
	}
}

func (s *substitution) transferArtifacts() {
	for _, dam := range model.MappingsOf[*model.DeploymentArtifactMapping](s.c.Model) {
		src, ok := s.matchedNode(dam.DetectorElement.ID)
		if !ok {
			continue
		}
		dst, ok := s.placedNode(dam.RefinementElement.ID)
		if !ok {
			continue
		}
		for _, a := range src.Artifacts {
			if !s.types.IsSubtypeOf(a.Type, dam.ArtifactType) {
				continue
			}
			if !slices.ContainsFunc(dst.Artifacts, func(b topology.Artifact) bool { return b.Name == a.Name }) {
				dst.Artifacts = append(dst.Artifacts, a)
			}
		}
	}
}

// replaced reports whether topology node t is matched by a detector node
// that does not stay.
func (s *substitution) replaced(t string) bool {
	d, ok := s.c.Mapping.DetectorNode(t)
	return ok && !s.c.Model.IsStayPlaceholder(d)
}

// externalRelations returns the unmatched edges attached to topology node t.
func (s *substitution) externalRelations(t string) []*topology.Edge {
	var out []*topology.Edge
	for _, e := range append(s.topo.Incoming(t), s.topo.Outgoing(t)...) {
		if _, matched := s.c.Mapping.DetectorEdge(e.ID); matched || slices.Contains(out, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// redirection finds the relation mapping of detector node d that applies to
// e at topology node t.
func (s *substitution) redirection(d, t string, e *topology.Edge) *model.RelationMapping {
	otherID := e.Source
	if e.Source == t {
		otherID = e.Target
	}
	other, _ := s.topo.Node(otherID)
	for _, rm := range model.MappingsOf[*model.RelationMapping](s.c.Model) {
		// relations can only be attached to refinement nodes
		if !rm.RefinementElement.IsNode() || !s.c.Model.RefinementStructure.HasNode(rm.RefinementElement.ID) {
			continue
		}
		if rm.DetectorElement.ID == d && rm.CanRedirect(e, t, other, s.types) {
			return rm
		}
	}
	return nil
}

// unredirectable returns the external relations no mapping can move. Edges
// between two replaced nodes are ignored since both ends disappear.
func (s *substitution) unredirectable() []string {
	var out []string
	for d, t := range s.c.Mapping.Nodes() {
		if s.c.Model.IsStayPlaceholder(d) {
			continue
		}
		for _, e := range s.externalRelations(t) {
			if s.internal(e) {
				continue
			}
			if s.redirection(d, t, e) == nil {
				out = append(out, e.ID)
			}
		}
	}
	return out
}

func (s *substitution) internal(e *topology.Edge) bool {
	return s.replaced(e.Source) && s.replaced(e.Target)
}

func (s *substitution) redirectExternalRelations() error {
	for d, t := range s.c.Mapping.Nodes() {
		if s.c.Model.IsStayPlaceholder(d) {
			continue
		}
		for _, e := range s.externalRelations(t) {
			if s.internal(e) {
				continue
			}
			var dst string
			if rm := s.redirection(d, t, e); rm != nil {
				dst = s.placed[rm.RefinementElement.ID]
			}
			if dst == "" {
				s.logger.Warn("relation cannot be redirected and is removed",
					logging.TopologyElement(e.ID),
					logging.DetectorElement(d),
					logging.ModelID(s.c.Model.ID),
				)
				if err := s.topo.RemoveEdge(e.ID); err != nil {
					return err
				}
				continue
			}
			source, target := "", dst
			if e.Source == t {
				source, target = dst, ""
			}
			if err := s.topo.RetargetEdge(e.ID, source, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *substitution) removeMatched() error {
	for d, t := range s.c.Mapping.Edges() {
		if s.c.Model.IsStayPlaceholder(d) || !s.topo.HasEdge(t) {
			continue
		}
		if err := s.topo.RemoveEdge(t); err != nil {
			return err
		}
	}
	for d, t := range s.c.Mapping.Nodes() {
		if s.c.Model.IsStayPlaceholder(d) {
			continue
		}
		if _, err := s.topo.RemoveNode(t); err != nil {
			return err
		}
	}
	return nil
}

// mergeMarkers appends the policies whose type the node does not carry yet.
func mergeMarkers(n *topology.Node, policies []topology.Policy) {
	for _, p := range policies {
		if !topology.HasPolicyType(n.Policies, p.Type) {
			n.Policies = append(n.Policies, p)
		}
	}
}

// stripMarker removes every policy named name.
func stripMarker(policies *[]topology.Policy, name string) bool {
	before := len(*policies)
	*policies = slices.DeleteFunc(*policies, func(p topology.Policy) bool { return p.Name == name })
	return len(*policies) != before
}
