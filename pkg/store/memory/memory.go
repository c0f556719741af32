// Package memory is an in-process Store backed by maps.
package memory

import (
	"context"
	"sync"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Store keeps deep copies of every model in memory.
type Store struct {
	mu     sync.RWMutex
	models map[store.ElementID]*model.RefinementModel
	types  map[topology.TypeKind]map[topology.QName]topology.TypeDefinition
	closed bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		models: make(map[store.ElementID]*model.RefinementModel),
		types:  make(map[topology.TypeKind]map[topology.QName]topology.TypeDefinition),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) GetElement(ctx context.Context, id store.ElementID) (*model.RefinementModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.NewError("GetElement", id, store.ErrClosed)
	}
	m, ok := s.models[id]
	if !ok {
		return nil, store.NewError("GetElement", id, store.ErrNotFound)
	}
	return m.Clone(), nil
}

func (s *Store) SetElement(ctx context.Context, id store.ElementID, m *model.RefinementModel) error {
	if err := id.Validate(); err != nil {
		return store.NewError("SetElement", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.NewError("SetElement", id, store.ErrClosed)
	}
	s.models[id] = m.Clone()
	return nil
}

func (s *Store) Duplicate(ctx context.Context, source, target store.ElementID) error {
	if err := target.Validate(); err != nil {
		return store.NewError("Duplicate", target, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.NewError("Duplicate", source, store.ErrClosed)
	}
	m, ok := s.models[source]
	if !ok {
		return store.NewError("Duplicate", source, store.ErrNotFound)
	}
	if _, exists := s.models[target]; exists {
		return store.NewError("Duplicate", target, store.ErrAlreadyExists)
	}
	s.models[target] = store.Renamed(m, target)
	return nil
}

func (s *Store) Exists(ctx context.Context, id store.ElementID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.models[id]
	return ok, nil
}

func (s *Store) List(ctx context.Context, kind model.Kind) ([]store.ElementID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []store.ElementID
	for id := range s.models {
		if id.Kind == kind {
			ids = append(ids, id)
		}
	}
	store.SortIDs(ids)
	return ids, nil
}

func (s *Store) TypeDefinitions(ctx context.Context, kind topology.TypeKind) (map[topology.QName]topology.TypeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[topology.QName]topology.TypeDefinition, len(s.types[kind]))
	for name, def := range s.types[kind] {
		out[name] = def
	}
	return out, nil
}

func (s *Store) DefineType(ctx context.Context, def topology.TypeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.NewError("DefineType", def.Name, store.ErrClosed)
	}
	if s.types[def.Kind] == nil {
		s.types[def.Kind] = make(map[topology.QName]topology.TypeDefinition)
	}
	s.types[def.Kind][def.Name] = def
	return nil
}

// Close marks the store closed. Later writes fail with store.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
