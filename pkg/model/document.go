package model

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// MappingKind is the persisted discriminator of a mapping.
type MappingKind string

const (
	RelationKind           MappingKind = "relation"
	AttributeKind          MappingKind = "attribute"
	DeploymentArtifactKind MappingKind = "deploymentArtifact"
	StayKind               MappingKind = "stay"
	PermutationKind        MappingKind = "permutation"
	BehaviorPatternKind    MappingKind = "behaviorPattern"
)

// ErrUnknownMappingKind is returned for documents with an unrecognized mapping kind.
var ErrUnknownMappingKind = errors.New("unknown mapping kind")

// Document is the persisted form of a RefinementModel.
type Document struct {
	ID                  string            `yaml:"id" json:"id" validate:"required"`
	Name                string            `yaml:"name" json:"name" validate:"required"`
	TargetNamespace     string            `yaml:"targetNamespace" json:"targetNamespace"`
	Kind                Kind              `yaml:"kind" json:"kind" validate:"required,oneof=topologyFragmentRefinementModel patternRefinementModel"`
	Detector            topology.Template `yaml:"detector" json:"detector"`
	RefinementStructure topology.Template `yaml:"refinementStructure" json:"refinementStructure"`
	Mappings            []MappingDocument `yaml:"mappings,omitempty" json:"mappings,omitempty" validate:"dive"`
	PermutationOptions  [][]string        `yaml:"permutationOptions,omitempty" json:"permutationOptions,omitempty"`
	ComponentSets       [][]string        `yaml:"componentSets,omitempty" json:"componentSets,omitempty"`
}

// MappingDocument is the persisted form of any mapping. Fields not used by Kind stay empty.
type MappingDocument struct {
	Kind              MappingKind `yaml:"kind" json:"kind" validate:"required,oneof=relation attribute deploymentArtifact stay permutation behaviorPattern"`
	ID                string      `yaml:"id" json:"id" validate:"required"`
	DetectorElement   ElementRef  `yaml:"detectorElement" json:"detectorElement"`
	RefinementElement ElementRef  `yaml:"refinementElement" json:"refinementElement"`

	RelationType        string        `yaml:"relationType,omitempty" json:"relationType,omitempty"`
	Direction           Direction     `yaml:"direction,omitempty" json:"direction,omitempty" validate:"omitempty,oneof=INCOMING OUTGOING"`
	ValidSourceOrTarget string        `yaml:"validSourceOrTarget,omitempty" json:"validSourceOrTarget,omitempty"`
	Mode                AttributeMode `yaml:"mode,omitempty" json:"mode,omitempty" validate:"omitempty,oneof=ALL SELECTIVE"`
	DetectorProperty    string        `yaml:"detectorProperty,omitempty" json:"detectorProperty,omitempty"`
	RefinementProperty  string        `yaml:"refinementProperty,omitempty" json:"refinementProperty,omitempty"`
	ArtifactType        string        `yaml:"artifactType,omitempty" json:"artifactType,omitempty"`
	BehaviorPattern     string        `yaml:"behaviorPattern,omitempty" json:"behaviorPattern,omitempty"`
	Property            *PropertyKV   `yaml:"property,omitempty" json:"property,omitempty"`
}

// Document converts the model into its persisted form.
func (m *RefinementModel) Document() Document {
	d := Document{
		ID:                  m.ID,
		Name:                m.Name,
		TargetNamespace:     m.TargetNamespace,
		Kind:                m.Kind,
		Detector:            m.Detector.Template(),
		RefinementStructure: m.RefinementStructure.Template(),
	}
	for _, mp := range m.Mappings {
		d.Mappings = append(d.Mappings, mappingDocument(mp))
	}
	for _, o := range m.PermutationOptions {
		d.PermutationOptions = append(d.PermutationOptions, []string(o))
	}
	for _, c := range m.ComponentSets {
		d.ComponentSets = append(d.ComponentSets, []string(c))
	}
	return d
}

func mappingDocument(mp Mapping) MappingDocument {
	md := MappingDocument{
		Kind:              KindOf(mp),
		ID:                mp.MappingID(),
		DetectorElement:   mp.Detector(),
		RefinementElement: mp.Refinement(),
	}
	switch v := mp.(type) {
	case *RelationMapping:
		md.RelationType = v.RelationType.String()
		md.Direction = v.Direction
		md.ValidSourceOrTarget = v.ValidSourceOrTarget.String()
	case *AttributeMapping:
		md.Mode = v.Mode
		md.DetectorProperty = v.DetectorProperty
		md.RefinementProperty = v.RefinementProperty
	case *DeploymentArtifactMapping:
		md.ArtifactType = v.ArtifactType.String()
	case *BehaviorPatternMapping:
		md.BehaviorPattern = v.BehaviorPattern
		p := v.Property
		md.Property = &p
	}
	return md
}

// FromDocument rebuilds a model from its persisted form.
func FromDocument(d Document) (*RefinementModel, error) {
	detector, err := topology.FromTemplate(d.Detector)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	structure, err := topology.FromTemplate(d.RefinementStructure)
	if err != nil {
		return nil, fmt.Errorf("refinement structure: %w", err)
	}

	m := &RefinementModel{
		ID:                  d.ID,
		Name:                d.Name,
		TargetNamespace:     d.TargetNamespace,
		Kind:                d.Kind,
		Detector:            detector,
		RefinementStructure: structure,
	}
	for i, md := range d.Mappings {
		mp, err := md.toMapping()
		if err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
		m.Mappings = append(m.Mappings, mp)
	}
	for _, o := range d.PermutationOptions {
		m.PermutationOptions = append(m.PermutationOptions, PermutationOption(o))
	}
	for _, c := range d.ComponentSets {
		m.ComponentSets = append(m.ComponentSets, ComponentSet(c))
	}
	return m, nil
}

func (md MappingDocument) toMapping() (Mapping, error) {
	base := Base{ID: md.ID, DetectorElement: md.DetectorElement, RefinementElement: md.RefinementElement}
	switch md.Kind {
	case RelationKind:
		relType, err := topology.ParseQName(md.RelationType)
		if err != nil {
			return nil, err
		}
		valid, err := topology.ParseQName(md.ValidSourceOrTarget)
		if err != nil {
			return nil, err
		}
		return &RelationMapping{Base: base, RelationType: relType, Direction: md.Direction, ValidSourceOrTarget: valid}, nil
	case AttributeKind:
		return &AttributeMapping{Base: base, Mode: md.Mode, DetectorProperty: md.DetectorProperty, RefinementProperty: md.RefinementProperty}, nil
	case DeploymentArtifactKind:
		artType, err := topology.ParseQName(md.ArtifactType)
		if err != nil {
			return nil, err
		}
		return &DeploymentArtifactMapping{Base: base, ArtifactType: artType}, nil
	case StayKind:
		return &StayMapping{Base: base}, nil
	case PermutationKind:
		return &PermutationMapping{Base: base}, nil
	case BehaviorPatternKind:
		bpm := &BehaviorPatternMapping{Base: base, BehaviorPattern: md.BehaviorPattern}
		if md.Property != nil {
			bpm.Property = *md.Property
		}
		return bpm, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMappingKind, md.Kind)
	}
}
