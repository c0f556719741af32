package refinement

import (
	"slices"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/matching"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Strategy supplies the parts of a run that differ between refinement kinds.
type Strategy interface {
	// Name labels logs, metrics and spans.
	Name() string
	// ModelKind selects the stored models the strategy works with.
	ModelKind() model.Kind
	// Prepare turns a stored model into the one whose detector is searched.
	Prepare(m *model.RefinementModel) *model.RefinementModel
	Matcher(m *model.RefinementModel) matching.Matcher
	// LoopCondition decides whether another iteration starts.
	LoopCondition(topo *topology.Graph) bool
	IsApplicable(c *Candidate, topo *topology.Graph) bool
	Apply(c *Candidate, topo *topology.Graph, logger logging.Logger) error
}

// Starter is implemented by strategies that inspect the topology once before
// the first iteration.
type Starter interface {
	Start(topo *topology.Graph)
}

// FragmentRefinement substitutes topology fragments until none matches.
type FragmentRefinement struct {
	Types *topology.Hierarchy
}

func (FragmentRefinement) Name() string          { return "topology_fragment_refinement" }
func (FragmentRefinement) ModelKind() model.Kind { return model.TopologyFragmentRefinementModel }

func (FragmentRefinement) Prepare(m *model.RefinementModel) *model.RefinementModel { return m }

func (s FragmentRefinement) Matcher(*model.RefinementModel) matching.Matcher {
	return matching.NewFragmentMatcher(s.Types)
}

func (FragmentRefinement) LoopCondition(*topology.Graph) bool { return true }

// IsApplicable requires every relation attached to a replaced node to have a
// relation mapping that moves it.
func (s FragmentRefinement) IsApplicable(c *Candidate, topo *topology.Graph) bool {
	return len(newSubstitution(c, topo, s.Types, logging.NewNopLogger()).unredirectable()) == 0
}

func (s FragmentRefinement) Apply(c *Candidate, topo *topology.Graph, logger logging.Logger) error {
	return newSubstitution(c, topo, s.Types, logger).apply()
}

// PatternRefinement replaces abstract patterns with concrete structures while
// the topology still holds elements typed in a pattern namespace.
type PatternRefinement struct {
	Types      *topology.Hierarchy
	Namespaces matching.NamespaceChecker

	initial []topology.Policy
}

func (*PatternRefinement) Name() string          { return "pattern_refinement" }
func (*PatternRefinement) ModelKind() model.Kind { return model.PatternRefinementModel }

func (*PatternRefinement) Prepare(m *model.RefinementModel) *model.RefinementModel { return m }

// Start records the behavior patterns present before refinement. They are
// exempt from the behavior comparison.
func (s *PatternRefinement) Start(topo *topology.Graph) {
	s.initial = InitialPatterns(topo, s.Namespaces)
}

// Matcher compares mapped properties and behavior patterns, exempting the
// patterns recorded by Start.
func (s *PatternRefinement) Matcher(m *model.RefinementModel) matching.Matcher {
	return matching.NewBehaviorPatternMatcher(m, s.Types, s.Namespaces, matching.WithInitialPatterns(s.initial))
}

// LoopCondition holds while some node is typed in a pattern namespace.
func (s *PatternRefinement) LoopCondition(topo *topology.Graph) bool {
	if s.Namespaces == nil {
		return false
	}
	for _, n := range topo.Nodes() {
		if s.Namespaces.IsPatternNamespace(n.Type.Namespace) {
			return true
		}
	}
	return false
}

// IsApplicable re-checks every matched pair against the current topology
// with the candidate's own model, then requires every attached relation to
// be redirectable.
func (s *PatternRefinement) IsApplicable(c *Candidate, topo *topology.Graph) bool {
	if !stillCompatible(c, topo, s.Matcher(c.Model)) {
		return false
	}
	return len(newSubstitution(c, topo, s.Types, logging.NewNopLogger()).unredirectable()) == 0
}

// Apply substitutes the candidate and drops the behavior patterns whose
// mapped property the matched node or relation does not carry.
func (s *PatternRefinement) Apply(c *Candidate, topo *topology.Graph, logger logging.Logger) error {
	sub := newSubstitution(c, topo, s.Types, logger)
	matched := snapshotProperties(c, topo)
	if err := sub.apply(); err != nil {
		return err
	}
	for _, bpm := range model.MappingsOf[*model.BehaviorPatternMapping](c.Model) {
		value := matched[bpm.DetectorElement][bpm.Property.Key]
		if matching.ValueCompatible(bpm.Property.Value, value, false) {
			continue
		}
		dropPattern(sub, bpm, logger)
	}
	return nil
}

// PatternDetection searches for concrete refinement structures and replaces
// them with the abstract pattern they implement.
type PatternDetection struct {
	Types *topology.Hierarchy
}

func (PatternDetection) Name() string          { return "pattern_detection" }
func (PatternDetection) ModelKind() model.Kind { return model.PatternRefinementModel }

// Prepare reverses m: its refinement structure becomes the detector.
func (PatternDetection) Prepare(m *model.RefinementModel) *model.RefinementModel { return m.Reverse() }

// Matcher excuses property mismatches referenced by behavior pattern mappings.
func (s PatternDetection) Matcher(m *model.RefinementModel) matching.Matcher {
	return matching.NewDetectionMatcher(m, s.Types)
}

func (PatternDetection) LoopCondition(*topology.Graph) bool { return true }

// IsApplicable accepts every candidate. Relations that cannot be moved are
// dropped during substitution.
func (PatternDetection) IsApplicable(*Candidate, *topology.Graph) bool { return true }

// Apply substitutes the pattern and strips the behavior patterns whose
// properties only matched because a mapping excused them.
func (s PatternDetection) Apply(c *Candidate, topo *topology.Graph, logger logging.Logger) error {
	excused := map[model.ElementRef][]string{}
	for _, d := range c.Detector.Nodes() {
		if t, ok := c.Mapping.Node(d.ID); ok {
			if n, ok := topo.Node(t); ok {
				excused[model.NodeRef(d.ID)] = matching.ExcusedProperties(c.Model, d.ID, d.Properties, n.Properties)
			}
		}
	}
	for _, d := range c.Detector.Edges() {
		if t, ok := c.Mapping.Edge(d.ID); ok {
			if e, ok := topo.Edge(t); ok {
				excused[model.EdgeRef(d.ID)] = matching.ExcusedProperties(c.Model, d.ID, d.Properties, e.Properties)
			}
		}
	}

	sub := newSubstitution(c, topo, s.Types, logger)
	if err := sub.apply(); err != nil {
		return err
	}
	for _, bpm := range model.MappingsOf[*model.BehaviorPatternMapping](c.Model) {
		if slices.Contains(excused[bpm.DetectorElement], bpm.Property.Key) {
			dropPattern(sub, bpm, logger)
		}
	}
	return nil
}

// dropPattern removes the behavior pattern of bpm from the element its
// refinement side was placed on.
func dropPattern(sub *substitution, bpm *model.BehaviorPatternMapping, logger logging.Logger) {
	policies, id, ok := sub.placedPolicies(bpm.RefinementElement)
	if ok && stripMarker(policies, bpm.BehaviorPattern) {
		logger.Debug("behavior pattern removed",
			logging.String("pattern", bpm.BehaviorPattern),
			logging.TopologyElement(id),
		)
	}
}

// stillCompatible reports whether every element the candidate matched is
// still present and accepted by matcher.
func stillCompatible(c *Candidate, topo *topology.Graph, matcher matching.Matcher) bool {
	for d, t := range c.Mapping.Nodes() {
		dn, ok := c.Detector.Node(d)
		if !ok {
			return false
		}
		tn, ok := topo.Node(t)
		if !ok || !matcher.NodeCompatible(tn, dn) {
			return false
		}
	}
	for d, t := range c.Mapping.Edges() {
		de, ok := c.Detector.Edge(d)
		if !ok {
			return false
		}
		te, ok := topo.Edge(t)
		if !ok || !matcher.EdgeCompatible(te, de) {
			return false
		}
	}
	return true
}

// InitialPatterns returns the behavior patterns attached to nodes of topo.
func InitialPatterns(topo *topology.Graph, ns matching.NamespaceChecker) []topology.Policy {
	if ns == nil {
		return nil
	}
	var out []topology.Policy
	for _, n := range topo.Nodes() {
		for _, p := range n.Policies {
			if ns.IsPatternNamespace(p.Type.Namespace) && !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// snapshotProperties copies the properties of every matched node and
// relation before the substitution removes them.
func snapshotProperties(c *Candidate, topo *topology.Graph) map[model.ElementRef]map[string]string {
	out := map[model.ElementRef]map[string]string{}
	for d, t := range c.Mapping.Nodes() {
		if n, ok := topo.Node(t); ok {
			out[model.NodeRef(d)] = n.Clone().Properties
		}
	}
	for d, t := range c.Mapping.Edges() {
		if e, ok := topo.Edge(t); ok {
			out[model.EdgeRef(d)] = e.Clone().Properties
		}
	}
	return out
}
