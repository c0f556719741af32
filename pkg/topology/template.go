package topology

import (
	"fmt"
)

// Template is the persisted form of a topology graph. Types and references
// are written as "{namespace}local" strings.
type Template struct {
	Nodes         []NodeTemplate         `yaml:"nodes" json:"nodes" validate:"dive"`
	Relationships []RelationshipTemplate `yaml:"relationships,omitempty" json:"relationships,omitempty" validate:"dive"`
}

type NodeTemplate struct {
	ID         string             `yaml:"id" json:"id" validate:"required"`
	Name       string             `yaml:"name,omitempty" json:"name,omitempty"`
	Type       string             `yaml:"type" json:"type" validate:"required"`
	Properties map[string]string  `yaml:"properties,omitempty" json:"properties,omitempty"`
	Policies   []PolicyTemplate   `yaml:"policies,omitempty" json:"policies,omitempty" validate:"dive"`
	Artifacts  []ArtifactTemplate `yaml:"artifacts,omitempty" json:"artifacts,omitempty" validate:"dive"`
}

type RelationshipTemplate struct {
	ID         string            `yaml:"id" json:"id" validate:"required"`
	Type       string            `yaml:"type" json:"type" validate:"required"`
	Source     string            `yaml:"source" json:"source" validate:"required"`
	Target     string            `yaml:"target" json:"target" validate:"required"`
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
	Policies   []PolicyTemplate  `yaml:"policies,omitempty" json:"policies,omitempty" validate:"dive"`
}

type PolicyTemplate struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Type string `yaml:"type" json:"type" validate:"required"`
	Ref  string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

type ArtifactTemplate struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Type string `yaml:"type" json:"type" validate:"required"`
	Ref  string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// FromTemplate builds a graph from its persisted form.
func FromTemplate(t Template) (*Graph, error) {
	g := New()
	for _, nt := range t.Nodes {
		typ, err := ParseQName(nt.Type)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nt.ID, err)
		}
		policies, err := parsePolicies(nt.Policies)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nt.ID, err)
		}
		var artifacts []Artifact
		for _, at := range nt.Artifacts {
			a, err := parseArtifact(at)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", nt.ID, err)
			}
			artifacts = append(artifacts, a)
		}
		if _, err := g.AddNode(Node{
			ID:         nt.ID,
			Name:       nt.Name,
			Type:       typ,
			Properties: nt.Properties,
			Policies:   policies,
			Artifacts:  artifacts,
		}); err != nil {
			return nil, err
		}
	}
	for _, rt := range t.Relationships {
		typ, err := ParseQName(rt.Type)
		if err != nil {
			return nil, fmt.Errorf("relationship %q: %w", rt.ID, err)
		}
		policies, err := parsePolicies(rt.Policies)
		if err != nil {
			return nil, fmt.Errorf("relationship %q: %w", rt.ID, err)
		}
		if _, err := g.AddEdge(Edge{
			ID:         rt.ID,
			Type:       typ,
			Source:     rt.Source,
			Target:     rt.Target,
			Properties: rt.Properties,
			Policies:   policies,
		}); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Template converts the graph back into its persisted form.
func (g *Graph) Template() Template {
	var t Template
	for _, n := range g.nodes {
		nt := NodeTemplate{
			ID:         n.ID,
			Name:       n.Name,
			Type:       n.Type.String(),
			Properties: cloneProperties(n.Properties),
			Policies:   policyTemplates(n.Policies),
		}
		for _, a := range n.Artifacts {
			nt.Artifacts = append(nt.Artifacts, ArtifactTemplate{Name: a.Name, Type: a.Type.String(), Ref: a.Ref.String()})
		}
		t.Nodes = append(t.Nodes, nt)
	}
	for _, e := range g.edges {
		t.Relationships = append(t.Relationships, RelationshipTemplate{
			ID:         e.ID,
			Type:       e.Type.String(),
			Source:     e.Source,
			Target:     e.Target,
			Properties: cloneProperties(e.Properties),
			Policies:   policyTemplates(e.Policies),
		})
	}
	return t
}

func parsePolicies(in []PolicyTemplate) ([]Policy, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]Policy, 0, len(in))
	for _, pt := range in {
		typ, err := ParseQName(pt.Type)
		if err != nil {
			return nil, err
		}
		ref, err := ParseQName(pt.Ref)
		if err != nil {
			return nil, err
		}
		out = append(out, Policy{Name: pt.Name, Type: typ, Ref: ref})
	}
	return out, nil
}

func parseArtifact(at ArtifactTemplate) (Artifact, error) {
	typ, err := ParseQName(at.Type)
	if err != nil {
		return Artifact{}, err
	}
	ref, err := ParseQName(at.Ref)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: at.Name, Type: typ, Ref: ref}, nil
}

func policyTemplates(in []Policy) []PolicyTemplate {
	if in == nil {
		return nil
	}
	out := make([]PolicyTemplate, 0, len(in))
	for _, p := range in {
		out = append(out, PolicyTemplate{Name: p.Name, Type: p.Type.String(), Ref: p.Ref.String()})
	}
	return out
}
