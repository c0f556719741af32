// Package storetest holds the behavior every Store backend must show.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/model/modeltest"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Run exercises a fresh, empty store returned by open for every subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("get missing element", func(t *testing.T) {
		s := open(t)
		_, err := s.GetElement(ctx, store.ElementID{Kind: model.PatternRefinementModel, Namespace: modeltest.Namespace, Name: "nope"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set and get round trip", func(t *testing.T) {
		s := open(t)
		m := modeltest.ThreeTierModel()
		modeltest.AddAllPermutationMappings(m)
		m.PermutationOptions = []model.PermutationOption{{"1"}, {"2", "3"}}
		m.ComponentSets = []model.ComponentSet{{"2", "3"}}
		id := store.IDOf(m)

		require.NoError(t, s.SetElement(ctx, id, m))
		got, err := s.GetElement(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, m.Document(), got.Document())

		ok, err := s.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("returned models are copies", func(t *testing.T) {
		s := open(t)
		m := modeltest.TwoNodeModel()
		id := store.IDOf(m)
		require.NoError(t, s.SetElement(ctx, id, m))

		m.Name = "changed"
		got, err := s.GetElement(ctx, id)
		require.NoError(t, err)
		got.Mappings = nil

		again, err := s.GetElement(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "app-on-host", again.Name)
		assert.Len(t, again.Mappings, 3)
	})

	t.Run("set replaces", func(t *testing.T) {
		s := open(t)
		m := modeltest.TwoNodeModel()
		id := store.IDOf(m)
		require.NoError(t, s.SetElement(ctx, id, m))
		m.Mappings = m.Mappings[:1]
		require.NoError(t, s.SetElement(ctx, id, m))

		got, err := s.GetElement(ctx, id)
		require.NoError(t, err)
		assert.Len(t, got.Mappings, 1)
	})

	t.Run("duplicate renames the copy", func(t *testing.T) {
		s := open(t)
		m := modeltest.TwoNodeModel()
		source := store.IDOf(m)
		target := store.ElementID{Kind: source.Kind, Namespace: source.Namespace, Name: "app-on-host_permutation-app"}
		require.NoError(t, s.SetElement(ctx, source, m))

		require.NoError(t, s.Duplicate(ctx, source, target))
		got, err := s.GetElement(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, target.Name, got.Name)
		assert.Equal(t, target.Namespace, got.TargetNamespace)
		assert.Equal(t, m.Detector.Template(), got.Detector.Template())

		assert.ErrorIs(t, s.Duplicate(ctx, source, target), store.ErrAlreadyExists)
		missing := store.ElementID{Kind: source.Kind, Namespace: source.Namespace, Name: "missing"}
		assert.ErrorIs(t, s.Duplicate(ctx, missing, store.ElementID{Kind: source.Kind, Name: "other"}), store.ErrNotFound)
	})

	t.Run("list by kind", func(t *testing.T) {
		s := open(t)
		prm := modeltest.ThreeTierModel()
		tfrm := modeltest.TwoNodeModel()
		require.NoError(t, s.SetElement(ctx, store.IDOf(prm), prm))
		require.NoError(t, s.SetElement(ctx, store.IDOf(tfrm), tfrm))
		other := store.ElementID{Kind: model.PatternRefinementModel, Namespace: "http://a.org/with/slashes", Name: "0"}
		require.NoError(t, s.SetElement(ctx, other, prm))

		ids, err := s.List(ctx, model.PatternRefinementModel)
		require.NoError(t, err)
		assert.Equal(t, []store.ElementID{other, store.IDOf(prm)}, ids)

		ids, err = s.List(ctx, model.TopologyFragmentRefinementModel)
		require.NoError(t, err)
		assert.Equal(t, []store.ElementID{store.IDOf(tfrm)}, ids)
	})

	t.Run("invalid id is rejected", func(t *testing.T) {
		s := open(t)
		err := s.SetElement(ctx, store.ElementID{Kind: model.PatternRefinementModel}, modeltest.TwoNodeModel())
		assert.ErrorIs(t, err, store.ErrInvalidID)
	})

	t.Run("type definitions feed the hierarchy", func(t *testing.T) {
		s := open(t)
		base := topology.NewQName(modeltest.Namespace, "Server")
		vm := topology.NewQName(modeltest.Namespace, "VM")
		require.NoError(t, s.DefineType(ctx, topology.TypeDefinition{Kind: topology.NodeTypeKind, Name: base, Abstract: true}))
		require.NoError(t, s.DefineType(ctx, topology.TypeDefinition{Kind: topology.NodeTypeKind, Name: vm, DerivedFrom: base}))
		require.NoError(t, s.DefineType(ctx, topology.TypeDefinition{Kind: topology.RelationshipTypeKind, Name: modeltest.HostedOn}))

		defs, err := s.TypeDefinitions(ctx, topology.NodeTypeKind)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, base, defs[vm].DerivedFrom)
		assert.True(t, defs[base].Abstract)

		h, err := store.Hierarchy(ctx, s)
		require.NoError(t, err)
		assert.True(t, h.IsSubtypeOf(vm, base))
		assert.False(t, h.IsSubtypeOf(base, vm))
	})
}
