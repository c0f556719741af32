package topology

// TypeKind identifies which family of types a definition belongs to.
type TypeKind string

const (
	NodeTypeKind         TypeKind = "nodeType"
	RelationshipTypeKind TypeKind = "relationshipType"
	PolicyTypeKind       TypeKind = "policyType"
	ArtifactTypeKind     TypeKind = "artifactType"
)

// TypeDefinition declares a type and its optional parent.
type TypeDefinition struct {
	Kind        TypeKind `yaml:"kind" json:"kind" validate:"required,oneof=nodeType relationshipType policyType artifactType"`
	Name        QName    `yaml:"name" json:"name"`
	DerivedFrom QName    `yaml:"derivedFrom,omitempty" json:"derivedFrom,omitempty"`
	Abstract    bool     `yaml:"abstract,omitempty" json:"abstract,omitempty"`
}

// Hierarchy answers subtype questions over a set of type definitions.
// Types it does not know are only compatible with themselves.
type Hierarchy struct {
	parents map[QName]QName
}

// NewHierarchy builds a hierarchy from one or more definition maps.
func NewHierarchy(defs ...map[QName]TypeDefinition) (*Hierarchy, error) {
	h := &Hierarchy{parents: make(map[QName]QName)}
	for _, m := range defs {
		for name, def := range m {
			if !def.DerivedFrom.IsZero() {
				h.parents[name] = def.DerivedFrom
			}
		}
	}
	for name := range h.parents {
		seen := map[QName]bool{name: true}
		for p, ok := h.parents[name]; ok; p, ok = h.parents[p] {
			if seen[p] {
				return nil, NewError("NewHierarchy").Type(name).Cause(ErrTypeCycle).Err()
			}
			seen[p] = true
		}
	}
	return h, nil
}

// FlatHierarchy returns a hierarchy without inheritance: only equal types match.
func FlatHierarchy() *Hierarchy {
	return &Hierarchy{parents: map[QName]QName{}}
}

// IsSubtypeOf reports whether t equals super or transitively derives from it.
func (h *Hierarchy) IsSubtypeOf(t, super QName) bool {
	if t == super {
		return true
	}
	if h == nil {
		return false
	}
	for p, ok := h.parents[t]; ok; p, ok = h.parents[p] {
		if p == super {
			return true
		}
	}
	return false
}

// Ancestors returns the parents of t, nearest first.
func (h *Hierarchy) Ancestors(t QName) []QName {
	if h == nil {
		return nil
	}
	var out []QName
	for p, ok := h.parents[t]; ok; p, ok = h.parents[p] {
		out = append(out, p)
	}
	return out
}
