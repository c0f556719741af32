// Package refinement runs detect, choose and apply cycles that rewrite a
// topology with refinement models.
//
// Each iteration searches the topology for the detectors of every model,
// drops the candidates the strategy cannot apply, lets a Chooser pick one and
// substitutes it. The strategy's loop condition decides whether another
// iteration runs. The topology is modified in place.
package refinement

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dd0wney/cluso-topology/pkg/isomorphism"
	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/matching"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// DefaultMaxIterations bounds runs whose loop condition never turns false.
const DefaultMaxIterations = 100

// State is the phase a run is in.
type State int

const (
	Searching State = iota
	CandidateFound
	Applying
	Done
)

func (s State) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case CandidateFound:
		return "CANDIDATE_FOUND"
	case Applying:
		return "APPLYING"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Applied records one substitution.
type Applied struct {
	Iteration int
	Model     string
	Candidate int
}

// Result summarizes a run.
type Result struct {
	Iterations int
	Applied    []Applied
}

// Pipeline applies refinement models of one kind to topologies.
type Pipeline struct {
	strategy      Strategy
	chooser       Chooser
	store         store.Store
	models        []*model.RefinementModel
	maxIterations int

	logger         logging.Logger
	metrics        *metrics.Registry
	tracerProvider trace.TracerProvider
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore loads the models of the strategy's kind from st on every run.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithModels uses the given models instead of loading them from a store.
func WithModels(models ...*model.RefinementModel) Option {
	return func(p *Pipeline) { p.models = append(p.models, models...) }
}

// WithMaxIterations sets the iteration bound. Zero or less disables it.
func WithMaxIterations(n int) Option {
	return func(p *Pipeline) { p.maxIterations = n }
}

// WithLogger sets the logger. Every entry carries the component and the
// refinement kind.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = logging.OrNop(l) }
}

// WithMetrics records candidates, applied refinements and run lengths in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithTracerProvider sets the provider of the run and iteration spans.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) { p.tracerProvider = tp }
}

// New creates a pipeline. A nil chooser applies the first candidate.
func New(strategy Strategy, chooser Chooser, opts ...Option) *Pipeline {
	if chooser == nil {
		chooser = FirstChooser{}
	}
	p := &Pipeline{
		strategy:      strategy,
		chooser:       chooser,
		maxIterations: DefaultMaxIterations,
		logger:        logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracerProvider == nil {
		p.tracerProvider = otel.GetTracerProvider()
	}
	p.logger = p.logger.With(logging.Component("refinement"), logging.String("kind", strategy.Name()))
	return p
}

type searchTarget struct {
	model   *model.RefinementModel
	matcher matching.Matcher
}

// Run refines topo until the loop condition fails, no candidate is left or
// the chooser declines. The result is returned even when Run fails.
func (p *Pipeline) Run(ctx context.Context, topo *topology.Graph) (*Result, error) {
	tracer := p.tracerProvider.Tracer("github.com/dd0wney/cluso-topology/pkg/refinement")
	ctx, span := tracer.Start(ctx, "refinement.Run",
		trace.WithAttributes(
			attribute.String("refinement.kind", p.strategy.Name()),
			attribute.Int("topology.nodes", topo.NodeCount()),
		),
	)
	defer span.End()

	res := &Result{}
	timer := logging.StartTimer(p.logger, "refinement run")
	err := p.run(ctx, tracer, topo, res)
	p.metrics.RecordRun(p.strategy.Name(), res.Iterations)
	span.SetAttributes(attribute.Int("refinement.iterations", res.Iterations))
	if err != nil {
		timer.EndError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	timer.End(logging.Count(len(res.Applied)), logging.Iteration(res.Iterations))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, tracer trace.Tracer, topo *topology.Graph, res *Result) error {
	models, err := p.loadModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return fmt.Errorf("%w: %s", ErrNoModels, p.strategy.ModelKind())
	}

	if s, ok := p.strategy.(Starter); ok {
		s.Start(topo)
	}
	targets := make([]searchTarget, 0, len(models))
	for _, m := range models {
		prepared := p.strategy.Prepare(m)
		targets = append(targets, searchTarget{model: prepared, matcher: p.strategy.Matcher(prepared)})
	}

	for p.strategy.LoopCondition(topo) {
		if p.maxIterations > 0 && res.Iterations >= p.maxIterations {
			return fmt.Errorf("%w: %d iterations", ErrIterationLimit, res.Iterations)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Iterations++
		done, err := p.iterate(ctx, tracer, targets, topo, res)
		if err != nil || done {
			return err
		}
	}
	p.logger.Debug("loop condition no longer holds", logging.Iteration(res.Iterations))
	return nil
}

// iterate runs one search, choose and apply cycle and reports whether the run is done.
func (p *Pipeline) iterate(ctx context.Context, tracer trace.Tracer, targets []searchTarget, topo *topology.Graph, res *Result) (bool, error) {
	ctx, span := tracer.Start(ctx, "refinement.Iteration",
		trace.WithAttributes(attribute.Int("refinement.iteration", res.Iterations)),
	)
	defer span.End()

	p.logState(Searching, res)
	candidates := p.search(targets, topo)
	p.metrics.RecordCandidates(p.strategy.Name(), len(candidates))

	var applicable []*Candidate
	for _, c := range candidates {
		if p.strategy.IsApplicable(c, topo) {
			applicable = append(applicable, c)
		}
	}
	span.SetAttributes(
		attribute.Int("refinement.candidates", len(candidates)),
		attribute.Int("refinement.applicable", len(applicable)),
	)
	if len(applicable) == 0 {
		p.logState(Done, res, logging.Count(len(candidates)))
		return true, nil
	}
	p.logState(CandidateFound, res, logging.Count(len(applicable)))

	chosen, err := p.chooser.Choose(ctx, applicable, topo)
	if err != nil {
		return true, fmt.Errorf("choose refinement: %w", err)
	}
	if chosen == nil {
		p.logState(Done, res)
		return true, nil
	}
	if !slices.Contains(applicable, chosen) || chosen.Model.Kind != p.strategy.ModelKind() {
		return true, fmt.Errorf("%w: candidate %d", ErrInvalidCandidate, chosen.ID)
	}

	p.logState(Applying, res, logging.ModelID(chosen.Model.ID))
	if err := p.strategy.Apply(chosen, topo, p.logger); err != nil {
		return true, fmt.Errorf("apply %s: %w", chosen.Model.Name, err)
	}
	p.metrics.RecordApplied(p.strategy.Name())
	res.Applied = append(res.Applied, Applied{Iteration: res.Iterations, Model: chosen.Model.Name, Candidate: chosen.ID})
	p.logger.Info("refinement applied",
		logging.ModelID(chosen.Model.ID),
		logging.Iteration(res.Iterations),
	)
	return false, nil
}

func (p *Pipeline) logState(s State, res *Result, fields ...logging.Field) {
	fields = append(fields, logging.String("state", s.String()), logging.Iteration(res.Iterations))
	p.logger.Debug("refinement state", fields...)
}

func (p *Pipeline) search(targets []searchTarget, topo *topology.Graph) []*Candidate {
	var out []*Candidate
	for _, t := range targets {
		for gm := range isomorphism.FindMatches(t.model.Detector, topo, t.matcher).All() {
			p.metrics.RecordMatch(t.model.Name)
			out = append(out, &Candidate{
				ID:       len(out),
				Mapping:  gm,
				Detector: t.model.Detector,
				Model:    t.model,
			})
		}
	}
	return out
}

func (p *Pipeline) loadModels(ctx context.Context) ([]*model.RefinementModel, error) {
	var out []*model.RefinementModel
	for _, m := range p.models {
		if m.Kind == p.strategy.ModelKind() {
			out = append(out, m.Clone())
		}
	}
	if p.store == nil {
		return out, nil
	}

	ids, err := p.store.List(ctx, p.strategy.ModelKind())
	if err != nil {
		return nil, fmt.Errorf("list refinement models: %w", err)
	}
	for _, id := range ids {
		m, err := p.store.GetElement(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load refinement model: %w", err)
		}
		out = append(out, m)
	}
	p.logger.Debug("refinement models loaded", logging.Count(len(out)))
	return out, nil
}
