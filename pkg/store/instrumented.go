package store

import (
	"context"
	"time"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Instrumented records metrics and debug logs for every operation of the wrapped store.
type Instrumented struct {
	next    Store
	backend string
	metrics *metrics.Registry
	logger  logging.Logger
}

// Instrument wraps s. Both reg and logger may be nil.
func Instrument(s Store, backend string, reg *metrics.Registry, logger logging.Logger) *Instrumented {
	return &Instrumented{
		next:    s,
		backend: backend,
		metrics: reg,
		logger:  logging.OrNop(logger).With(logging.Component("store"), logging.Backend(backend)),
	}
}

func (s *Instrumented) observe(op string, start time.Time, err error, fields ...logging.Field) {
	elapsed := time.Since(start)
	s.metrics.RecordStoreOperation(s.backend, op, metrics.Status(err), elapsed)
	fields = append(fields, logging.Operation(op), logging.Latency(elapsed))
	if err != nil {
		s.logger.Debug("store operation failed", append(fields, logging.Error(err))...)
		return
	}
	s.logger.Debug("store operation", fields...)
}

func (s *Instrumented) GetElement(ctx context.Context, id ElementID) (*model.RefinementModel, error) {
	start := time.Now()
	m, err := s.next.GetElement(ctx, id)
	s.observe("get", start, err, logging.ModelID(id.String()))
	return m, err
}

func (s *Instrumented) SetElement(ctx context.Context, id ElementID, m *model.RefinementModel) error {
	start := time.Now()
	err := s.next.SetElement(ctx, id, m)
	s.observe("set", start, err, logging.ModelID(id.String()))
	return err
}

func (s *Instrumented) Duplicate(ctx context.Context, source, target ElementID) error {
	start := time.Now()
	err := s.next.Duplicate(ctx, source, target)
	s.observe("duplicate", start, err, logging.ModelID(source.String()), logging.Variant(target.String()))
	return err
}

func (s *Instrumented) Exists(ctx context.Context, id ElementID) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, id)
	s.observe("exists", start, err, logging.ModelID(id.String()))
	return ok, err
}

func (s *Instrumented) List(ctx context.Context, kind model.Kind) ([]ElementID, error) {
	start := time.Now()
	ids, err := s.next.List(ctx, kind)
	s.observe("list", start, err, logging.String("kind", string(kind)), logging.Count(len(ids)))
	return ids, err
}

func (s *Instrumented) TypeDefinitions(ctx context.Context, kind topology.TypeKind) (map[topology.QName]topology.TypeDefinition, error) {
	start := time.Now()
	defs, err := s.next.TypeDefinitions(ctx, kind)
	s.observe("type_definitions", start, err, logging.String("kind", string(kind)), logging.Count(len(defs)))
	return defs, err
}

func (s *Instrumented) DefineType(ctx context.Context, def topology.TypeDefinition) error {
	start := time.Now()
	err := s.next.DefineType(ctx, def)
	s.observe("define_type", start, err, logging.String("type", def.Name.String()))
	return err
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}

// Unwrap returns the wrapped store.
func (s *Instrumented) Unwrap() Store { return s.next }
