package model

import (
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// ElementRef points at a node or edge of a graph by ID.
type ElementRef struct {
	Kind topology.ElementKind `yaml:"kind" json:"kind"`
	ID   string               `yaml:"id" json:"id" validate:"required"`
}

// NodeRef references a node.
func NodeRef(id string) ElementRef { return ElementRef{Kind: topology.NodeElement, ID: id} }

// EdgeRef references an edge.
func EdgeRef(id string) ElementRef { return ElementRef{Kind: topology.EdgeElement, ID: id} }

func (r ElementRef) IsNode() bool { return r.Kind == topology.NodeElement }
func (r ElementRef) IsEdge() bool { return r.Kind == topology.EdgeElement }

func (r ElementRef) String() string { return r.Kind.String() + ":" + r.ID }

// Direction tells which relations of a detector node a RelationMapping redirects.
type Direction string

const (
	Incoming Direction = "INCOMING"
	Outgoing Direction = "OUTGOING"
)

// AttributeMode selects how many properties an AttributeMapping carries over.
type AttributeMode string

const (
	AttributeAll       AttributeMode = "ALL"
	AttributeSelective AttributeMode = "SELECTIVE"
)

// PropertyKV is a single property key and value.
type PropertyKV struct {
	Key   string `yaml:"key" json:"key" validate:"required"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Mapping associates one detector element with one refinement element.
// The set of implementations is closed; consumers switch on the concrete type.
type Mapping interface {
	MappingID() string
	Detector() ElementRef
	Refinement() ElementRef
	clone() Mapping
	setID(id string)
}

// Base carries the fields every mapping kind shares.
type Base struct {
	ID                string
	DetectorElement   ElementRef
	RefinementElement ElementRef
}

func (b *Base) MappingID() string      { return b.ID }
func (b *Base) Detector() ElementRef   { return b.DetectorElement }
func (b *Base) Refinement() ElementRef { return b.RefinementElement }
func (b *Base) setID(id string)        { b.ID = id }

// RelationMapping declares where relations of a detector node end up in the refinement structure.
type RelationMapping struct {
	Base
	RelationType        topology.QName
	Direction           Direction
	ValidSourceOrTarget topology.QName
}

// AttributeMapping carries properties of the matched element to the refinement element.
type AttributeMapping struct {
	Base
	Mode               AttributeMode
	DetectorProperty   string
	RefinementProperty string
}

// DeploymentArtifactMapping moves artifacts of one type to the refinement element.
type DeploymentArtifactMapping struct {
	Base
	ArtifactType topology.QName
}

// StayMapping marks a detector element that is kept as is during substitution.
type StayMapping struct {
	Base
}

// PermutationMapping records which refinement node a detector element's content moves to.
type PermutationMapping struct {
	Base
}

// BehaviorPatternMapping keeps the behavior pattern named BehaviorPattern on the
// refinement element only while the matched element's Property.Key is compatible
// with Property.Value.
type BehaviorPatternMapping struct {
	Base
	BehaviorPattern string
	Property        PropertyKV
}

func (m *RelationMapping) clone() Mapping           { c := *m; return &c }
func (m *AttributeMapping) clone() Mapping          { c := *m; return &c }
func (m *DeploymentArtifactMapping) clone() Mapping { c := *m; return &c }
func (m *StayMapping) clone() Mapping               { c := *m; return &c }
func (m *PermutationMapping) clone() Mapping        { c := *m; return &c }
func (m *BehaviorPatternMapping) clone() Mapping    { c := *m; return &c }

// NewMappingID returns a random mapping ID.
func NewMappingID() string {
	return uuid.NewString()
}

// NewStayMapping creates a stay mapping with a generated ID.
func NewStayMapping(detector, refinement ElementRef) *StayMapping {
	return &StayMapping{Base: Base{ID: NewMappingID(), DetectorElement: detector, RefinementElement: refinement}}
}

// NewPermutationMapping creates a permutation mapping with a generated ID.
func NewPermutationMapping(detector, refinement ElementRef) *PermutationMapping {
	return &PermutationMapping{Base: Base{ID: NewMappingID(), DetectorElement: detector, RefinementElement: refinement}}
}

// KindOf returns the persisted name of a mapping's kind.
func KindOf(m Mapping) MappingKind {
	switch m.(type) {
	case *RelationMapping:
		return RelationKind
	case *AttributeMapping:
		return AttributeKind
	case *DeploymentArtifactMapping:
		return DeploymentArtifactKind
	case *StayMapping:
		return StayKind
	case *PermutationMapping:
		return PermutationKind
	case *BehaviorPatternMapping:
		return BehaviorPatternKind
	default:
		return ""
	}
}

// IsContentMapping reports whether m moves content of the detector element
// (relations, attributes or artifacts) to its refinement element.
func IsContentMapping(m Mapping) bool {
	switch m.(type) {
	case *RelationMapping, *AttributeMapping, *DeploymentArtifactMapping:
		return true
	default:
		return false
	}
}

// CanRedirect reports whether edge, attached to endpoint in the role of this
// mapping's detector element, may be redirected to the refinement element.
// other is the node at the far end of the edge.
func (m *RelationMapping) CanRedirect(edge *topology.Edge, endpoint string, other *topology.Node, h *topology.Hierarchy) bool {
	switch m.Direction {
	case Incoming:
		if edge.Target != endpoint {
			return false
		}
	case Outgoing:
		if edge.Source != endpoint {
			return false
		}
	default:
		return false
	}
	if !m.RelationType.IsZero() && !h.IsSubtypeOf(edge.Type, m.RelationType) {
		return false
	}
	if !m.ValidSourceOrTarget.IsZero() {
		if other == nil || !h.IsSubtypeOf(other.Type, m.ValidSourceOrTarget) {
			return false
		}
	}
	return true
}
