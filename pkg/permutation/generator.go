package permutation

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Generator materializes the permutation variants of a refinement model.
type Generator struct {
	store   store.Store
	checker *Checker
	logger  logging.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
}

// NewGenerator creates a generator persisting variants in st. Models are
// checked with checker before anything is generated.
func NewGenerator(st store.Store, checker *Checker, opts ...Option) *Generator {
	cfg := newConfig(opts)
	return &Generator{
		store:   st,
		checker: checker,
		logger:  cfg.logger.With(logging.Component("permutation-generator")),
		metrics: cfg.metrics,
		tracer:  cfg.tracerProvider.Tracer(instrumentationName),
	}
}

// VariantName returns the name of the variant of m for option. Members are
// sorted, so the name does not depend on option order.
func VariantName(m *model.RefinementModel, option model.PermutationOption) string {
	ids := model.SortedIDs(option)
	for i, id := range ids {
		ids[i] = strings.ReplaceAll(id, "_", "-")
	}
	return m.Name + "_permutation-" + strings.Join(ids, "-")
}

// Generate checks m and stores one variant per permutation option, keyed by
// variant name. m itself is stored too and gains the derived permutation
// mappings.
//
// A model failing the check yields an error matching ErrNotPermutable and no
// variants. A store failure stops generation: the variants finished so far are
// returned together with an error matching ErrPersistence.
func (g *Generator) Generate(ctx context.Context, m *model.RefinementModel) (map[string]*model.RefinementModel, error) {
	ctx, span := g.tracer.Start(ctx, "permutation.Generate",
		trace.WithAttributes(
			attribute.String("model.name", m.Name),
			attribute.String("model.namespace", m.TargetNamespace),
		),
	)
	defer span.End()

	if err := g.checker.Check(m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model cannot be permuted")
		return nil, fmt.Errorf("generate permutations of %s: %w", m.Name, err)
	}
	span.SetAttributes(attribute.Int("permutation.options", len(m.PermutationOptions)))

	variants := make(map[string]*model.RefinementModel, len(m.PermutationOptions))
	if err := g.store.SetElement(ctx, store.IDOf(m), m); err != nil {
		return variants, g.persistenceFailure(span, m.Name, err)
	}

	for _, option := range m.PermutationOptions {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context canceled")
			return variants, err
		}
		name := VariantName(m, option)
		variant, err := g.generateVariant(ctx, m, option, name)
		if err != nil {
			return variants, g.persistenceFailure(span, name, err)
		}
		variants[name] = variant
		g.metrics.RecordPermutationGenerated()
		g.logger.Debug("permutation variant stored",
			logging.ModelID(m.ID),
			logging.Variant(name),
		)
	}

	span.SetStatus(codes.Ok, "")
	return variants, nil
}

func (g *Generator) persistenceFailure(span trace.Span, name string, err error) error {
	g.logger.Error("failed to store permutation variant",
		logging.Variant(name),
		logging.Error(err),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, "persistence failed")
	return fmt.Errorf("store %s: %w: %w", name, ErrPersistence, err)
}

func (g *Generator) generateVariant(ctx context.Context, m *model.RefinementModel, option model.PermutationOption, name string) (*model.RefinementModel, error) {
	ctx, span := g.tracer.Start(ctx, "permutation.Variant",
		trace.WithAttributes(
			attribute.String("permutation.variant", name),
			attribute.StringSlice("permutation.option", option),
		),
	)
	defer span.End()

	id := store.ElementID{Kind: m.Kind, Namespace: m.TargetNamespace, Name: name}
	if err := g.store.SetElement(ctx, id, store.Renamed(m, id)); err != nil {
		return nil, err
	}
	variant, err := g.store.GetElement(ctx, id)
	if err != nil {
		return nil, err
	}

	b := &variantBuilder{base: m, variant: variant, option: option, clones: map[string]string{}, wired: map[string]bool{}}
	for _, detectorID := range option {
		if err := b.materialize(detectorID); err != nil {
			return nil, err
		}
	}
	for _, detectorID := range option {
		if err := b.consume(detectorID); err != nil {
			return nil, err
		}
	}
	variant.ResetDerived()
	span.SetAttributes(attribute.Int("variant.detector_nodes", variant.Detector.NodeCount()))

	if err := g.store.SetElement(ctx, id, variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// variantBuilder rewrites the detector of one variant.
type variantBuilder struct {
	base    *model.RefinementModel
	variant *model.RefinementModel
	option  model.PermutationOption
	// refinement node ID -> clone ID in the variant detector
	clones map[string]string
	// refinement nodes whose outgoing relations have been copied
	wired map[string]bool
}

// materialize copies the refinement nodes that detectorID permutes to into
// the variant detector and connects them.
func (b *variantBuilder) materialize(detectorID string) error {
	detector := b.variant.Detector
	images := b.images(detectorID)

	for _, refID := range images {
		clone, err := b.clone(refID)
		if err != nil {
			return err
		}
		if err := b.wireOutgoing(refID, clone); err != nil {
			return err
		}

		for _, rel := range detector.Incoming(detectorID) {
			if !b.permutesTo(rel.ID, refID) && len(images) != 1 {
				continue
			}
			if _, err := detector.Connect(rel.Source, clone, rel.Type); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// images returns the distinct refinement nodes detector node id permutes to.
func (b *variantBuilder) images(id string) []string {
	var out []string
	for _, pm := range model.MappingsOf[*model.PermutationMapping](b.variant) {
		if pm.DetectorElement.IsNode() && pm.DetectorElement.ID == id && pm.RefinementElement.IsNode() &&
			!slices.Contains(out, pm.RefinementElement.ID) {
			out = append(out, pm.RefinementElement.ID)
		}
	}
	return out
}

func (b *variantBuilder) permutesTo(edgeID, refID string) bool {
	for _, pm := range model.MappingsOf[*model.PermutationMapping](b.variant) {
		if pm.DetectorElement.IsEdge() && pm.DetectorElement.ID == edgeID && pm.RefinementElement.ID == refID {
			return true
		}
	}
	return false
}

// clone adds a copy of refinement node refID to the variant detector once and
// keeps it through a stay mapping.
func (b *variantBuilder) clone(refID string) (string, error) {
	if id, ok := b.clones[refID]; ok {
		return id, nil
	}
	n, ok := b.variant.RefinementStructure.Node(refID)
	if !ok {
		return "", topology.NodeNotFoundError("clone", refID)
	}
	c := n.Clone()
	c.ID = b.variant.Detector.UniqueID(n.Type.Local)
	if _, err := b.variant.Detector.AddNode(*c); err != nil {
		return "", err
	}
	b.variant.AddMapping(model.NewStayMapping(model.NodeRef(c.ID), model.NodeRef(refID)))
	b.clones[refID] = c.ID
	return c.ID, nil
}

// wireOutgoing mirrors the outgoing relations of refinement node refID on its clone.
func (b *variantBuilder) wireOutgoing(refID, clone string) error {
	if b.wired[refID] {
		return nil
	}
	b.wired[refID] = true
	detector := b.variant.Detector

	for _, rel := range b.variant.RefinementStructure.Outgoing(refID) {
		for _, pm := range model.MappingsOf[*model.PermutationMapping](b.base) {
			if pm.RefinementElement.ID != rel.Target || !pm.DetectorElement.IsNode() {
				continue
			}
			target := pm.DetectorElement.ID
			if b.option.Contains(target) {
				var err error
				if target, err = b.clone(rel.Target); err != nil {
					return err
				}
			}
			if _, err := detector.Connect(clone, target, rel.Type); err != nil {
				return err
			}
		}

		for _, stay := range model.MappingsOf[*model.StayMapping](b.variant) {
			if stay.RefinementElement.ID != rel.Target {
				continue
			}
			if slices.ContainsFunc(detector.EdgesBetween(clone, stay.DetectorElement.ID), func(e *topology.Edge) bool {
				return e.Type == rel.Type
			}) {
				continue
			}
			if _, err := detector.Connect(clone, stay.DetectorElement.ID, rel.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

// consume drops detector node id and every mapping that refers to it or to
// one of its relations.
func (b *variantBuilder) consume(id string) error {
	detector := b.variant.Detector
	incident := map[string]bool{}
	for _, e := range detector.Incoming(id) {
		incident[e.ID] = true
	}
	for _, e := range detector.Outgoing(id) {
		incident[e.ID] = true
	}

	b.variant.RemoveMappings(func(mp model.Mapping) bool {
		switch mp.(type) {
		case *model.RelationMapping, *model.AttributeMapping, *model.DeploymentArtifactMapping:
			return mp.Detector().IsNode() && mp.Detector().ID == id
		case *model.PermutationMapping:
			d := mp.Detector()
			return (d.IsNode() && d.ID == id) || (d.IsEdge() && incident[d.ID])
		default:
			return false
		}
	})

	_, err := detector.RemoveNode(id)
	return err
}
