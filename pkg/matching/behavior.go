package matching

import (
	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// BehaviorPatternMatcher is used for pattern refinement. Only properties named
// by attribute mappings of the detector element are compared, and behavior
// patterns must agree on both sides except for the initial ones.
type BehaviorPatternMatcher struct {
	TypeMatcher
	model      *model.RefinementModel
	namespaces NamespaceChecker
	initial    []topology.Policy
	logger     logging.Logger
}

// BehaviorOption configures a BehaviorPatternMatcher.
type BehaviorOption func(*BehaviorPatternMatcher)

// WithInitialPatterns exempts the given policies from the behavior comparison.
// Pass the patterns the topology carried before refinement started.
func WithInitialPatterns(policies []topology.Policy) BehaviorOption {
	return func(m *BehaviorPatternMatcher) {
		m.initial = append([]topology.Policy(nil), policies...)
	}
}

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l logging.Logger) BehaviorOption {
	return func(m *BehaviorPatternMatcher) { m.logger = logging.OrNop(l) }
}

// NewBehaviorPatternMatcher creates the matcher for pattern refinement with
// model m. ns decides which policy types are behavior patterns.
func NewBehaviorPatternMatcher(m *model.RefinementModel, types *topology.Hierarchy, ns NamespaceChecker, opts ...BehaviorOption) *BehaviorPatternMatcher {
	bm := &BehaviorPatternMatcher{
		TypeMatcher: TypeMatcher{Types: types},
		model:       m,
		namespaces:  ns,
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(bm)
	}
	for _, am := range model.MappingsOf[*model.AttributeMapping](m) {
		if am.Mode == model.AttributeAll {
			bm.logger.Warn("attribute mapping ALL is ambiguous for pattern refinement, use SELECTIVE",
				logging.ModelID(m.ID), logging.DetectorElement(am.DetectorElement.ID))
		}
	}
	return bm
}

func (m *BehaviorPatternMatcher) NodeCompatible(candidate, detector *topology.Node) bool {
	return m.TypeMatcher.NodeCompatible(candidate, detector) &&
		m.propertiesCompatible(detector.ID, detector.Properties, candidate.Properties) &&
		BehaviorMarkersCompatible(detector.Policies, candidate.Policies, m.namespaces, m.initial)
}

func (m *BehaviorPatternMatcher) EdgeCompatible(candidate, detector *topology.Edge) bool {
	return m.TypeMatcher.EdgeCompatible(candidate, detector) &&
		m.propertiesCompatible(detector.ID, detector.Properties, candidate.Properties) &&
		BehaviorMarkersCompatible(detector.Policies, candidate.Policies, m.namespaces, m.initial)
}

// Properties without an attribute mapping are irrelevant here. Properties
// referenced by behavior pattern mappings may differ; the pattern is dropped later.
func (m *BehaviorPatternMatcher) propertiesCompatible(detectorID string, detector, candidate map[string]string) bool {
	if len(detector) == 0 || len(candidate) == 0 {
		return true
	}
	for _, am := range model.MappingsOf[*model.AttributeMapping](m.model) {
		if am.DetectorElement.ID != detectorID {
			continue
		}
		var keys []string
		if am.Mode == model.AttributeSelective {
			keys = []string{am.DetectorProperty}
		}
		if !PropertiesCompatible(detector, candidate, keys, false) {
			return false
		}
	}
	return true
}
