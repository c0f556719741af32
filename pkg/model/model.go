package model

import (
	"slices"
	"sort"

	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Kind distinguishes the refinement model families.
type Kind string

const (
	TopologyFragmentRefinementModel Kind = "topologyFragmentRefinementModel"
	PatternRefinementModel          Kind = "patternRefinementModel"
)

// PermutationOption is a set of detector node IDs replaced together in one variant.
type PermutationOption []string

// ComponentSet is a set of detector node IDs that must be refined together.
type ComponentSet []string

// Contains reports whether id is a member.
func (o PermutationOption) Contains(id string) bool { return slices.Contains(o, id) }

// Contains reports whether id is a member.
func (c ComponentSet) Contains(id string) bool { return slices.Contains(c, id) }

// RefinementModel pairs a detector with the refinement structure that replaces
// its occurrences, plus the mappings between the two.
type RefinementModel struct {
	ID              string
	Name            string
	TargetNamespace string
	Kind            Kind

	Detector            *topology.Graph
	RefinementStructure *topology.Graph
	Mappings            []Mapping

	// Derived by the permutability check.
	PermutationOptions []PermutationOption
	ComponentSets      []ComponentSet
}

// New creates an empty model of the given kind.
func New(kind Kind, namespace, name string) *RefinementModel {
	return &RefinementModel{
		ID:                  name,
		Name:                name,
		TargetNamespace:     namespace,
		Kind:                kind,
		Detector:            topology.New(),
		RefinementStructure: topology.New(),
	}
}

// QName returns the model's namespaced name.
func (m *RefinementModel) QName() topology.QName {
	return topology.NewQName(m.TargetNamespace, m.Name)
}

// Clone returns a deep copy. Mapping references are IDs, so they stay valid in the copy.
func (m *RefinementModel) Clone() *RefinementModel {
	c := *m
	if m.Detector != nil {
		c.Detector = m.Detector.Clone()
	}
	if m.RefinementStructure != nil {
		c.RefinementStructure = m.RefinementStructure.Clone()
	}
	c.Mappings = make([]Mapping, len(m.Mappings))
	for i, mp := range m.Mappings {
		c.Mappings[i] = mp.clone()
	}
	c.PermutationOptions = cloneSets(m.PermutationOptions)
	c.ComponentSets = cloneSets(m.ComponentSets)
	return &c
}

// AddMapping appends mp, assigning a random ID when it has none.
func (m *RefinementModel) AddMapping(mp Mapping) {
	if mp.MappingID() == "" {
		mp.setID(NewMappingID())
	}
	m.Mappings = append(m.Mappings, mp)
}

// RemoveMappings drops every mapping for which drop returns true and reports how many went.
func (m *RefinementModel) RemoveMappings(drop func(Mapping) bool) int {
	before := len(m.Mappings)
	m.Mappings = slices.DeleteFunc(m.Mappings, drop)
	return before - len(m.Mappings)
}

// MappingsOf returns the mappings of one concrete kind in declaration order.
func MappingsOf[T Mapping](m *RefinementModel) []T {
	var out []T
	for _, mp := range m.Mappings {
		if t, ok := mp.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// IsStayPlaceholder reports whether a detector element is kept by a stay mapping.
func (m *RefinementModel) IsStayPlaceholder(detectorID string) bool {
	for _, s := range MappingsOf[*StayMapping](m) {
		if s.DetectorElement.ID == detectorID {
			return true
		}
	}
	return false
}

// IsStayingRefinementElement reports whether a refinement element is the target of a stay mapping.
func (m *RefinementModel) IsStayingRefinementElement(refinementID string) bool {
	for _, s := range MappingsOf[*StayMapping](m) {
		if s.RefinementElement.ID == refinementID {
			return true
		}
	}
	return false
}

// StayTarget returns the detector element a staying refinement element stands for.
func (m *RefinementModel) StayTarget(refinementID string) (ElementRef, bool) {
	for _, s := range MappingsOf[*StayMapping](m) {
		if s.RefinementElement.ID == refinementID {
			return s.DetectorElement, true
		}
	}
	return ElementRef{}, false
}

// MappingsForDetector returns every mapping whose detector element has the given ID.
func (m *RefinementModel) MappingsForDetector(detectorID string) []Mapping {
	var out []Mapping
	for _, mp := range m.Mappings {
		if mp.Detector().ID == detectorID {
			out = append(out, mp)
		}
	}
	return out
}

// Reverse swaps the detector and the refinement structure together with both
// sides of every mapping. Pattern detection searches for refinement structures
// and replaces them with the abstract detector.
func (m *RefinementModel) Reverse() *RefinementModel {
	r := m.Clone()
	r.Detector, r.RefinementStructure = r.RefinementStructure, r.Detector
	for _, mp := range r.Mappings {
		b := baseOf(mp)
		b.DetectorElement, b.RefinementElement = b.RefinementElement, b.DetectorElement
	}
	r.PermutationOptions = nil
	r.ComponentSets = nil
	return r
}

func baseOf(mp Mapping) *Base {
	switch v := mp.(type) {
	case *RelationMapping:
		return &v.Base
	case *AttributeMapping:
		return &v.Base
	case *DeploymentArtifactMapping:
		return &v.Base
	case *StayMapping:
		return &v.Base
	case *PermutationMapping:
		return &v.Base
	case *BehaviorPatternMapping:
		return &v.Base
	default:
		panic("model: unknown mapping type")
	}
}

// ResetDerived clears permutation options and component sets.
func (m *RefinementModel) ResetDerived() {
	m.PermutationOptions = nil
	m.ComponentSets = nil
}

// SortedIDs returns a sorted copy of ids.
func SortedIDs(ids []string) []string {
	out := slices.Clone(ids)
	sort.Strings(out)
	return out
}

func cloneSets[S ~[]string](in []S) []S {
	if in == nil {
		return nil
	}
	out := make([]S, len(in))
	for i, s := range in {
		out[i] = slices.Clone(s)
	}
	return out
}
