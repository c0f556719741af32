// Package store defines the persistence contract for refinement models and
// type definitions. Backends live in the memory, filestore and postgres
// subpackages. All of them copy models on the way in and out, so callers never
// share state with the store.
package store

import (
	"context"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// ElementID addresses one stored refinement model.
type ElementID struct {
	Kind      model.Kind
	Namespace string
	Name      string
}

// IDOf returns the ID a model is stored under.
func IDOf(m *model.RefinementModel) ElementID {
	return ElementID{Kind: m.Kind, Namespace: m.TargetNamespace, Name: m.Name}
}

// QName returns the namespaced name of the element.
func (id ElementID) QName() topology.QName {
	return topology.NewQName(id.Namespace, id.Name)
}

func (id ElementID) String() string {
	return string(id.Kind) + ":" + id.QName().String()
}

// Store persists refinement models and resolves type hierarchies.
// Implementations are safe for concurrent use but assume a single writer per element.
type Store interface {
	// GetElement returns a copy of the stored model.
	GetElement(ctx context.Context, id ElementID) (*model.RefinementModel, error)
	// SetElement stores a copy of m under id, replacing any previous version.
	SetElement(ctx context.Context, id ElementID, m *model.RefinementModel) error
	// Duplicate copies source to target and renames the copy after target.
	Duplicate(ctx context.Context, source, target ElementID) error
	Exists(ctx context.Context, id ElementID) (bool, error)
	// List returns the IDs of all models of one kind, sorted by namespace and name.
	List(ctx context.Context, kind model.Kind) ([]ElementID, error)

	// TypeDefinitions returns every definition of one type family.
	TypeDefinitions(ctx context.Context, kind topology.TypeKind) (map[topology.QName]topology.TypeDefinition, error)
	DefineType(ctx context.Context, def topology.TypeDefinition) error

	Close() error
}

// Hierarchy builds a type hierarchy over the node and relationship types of s.
func Hierarchy(ctx context.Context, s Store) (*topology.Hierarchy, error) {
	var defs []map[topology.QName]topology.TypeDefinition
	for _, kind := range []topology.TypeKind{
		topology.NodeTypeKind,
		topology.RelationshipTypeKind,
		topology.PolicyTypeKind,
		topology.ArtifactTypeKind,
	} {
		d, err := s.TypeDefinitions(ctx, kind)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return topology.NewHierarchy(defs...)
}

// Renamed returns a copy of m that carries target's name and namespace.
func Renamed(m *model.RefinementModel, target ElementID) *model.RefinementModel {
	c := m.Clone()
	c.ID = target.Name
	c.Name = target.Name
	c.TargetNamespace = target.Namespace
	c.Kind = target.Kind
	return c
}
