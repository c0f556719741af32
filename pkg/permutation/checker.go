// Package permutation derives the permutation options of a refinement model
// and materializes one variant model per option.
//
// A Checker derives permutation mappings and component sets from the
// relation, attribute and deployment artifact mappings a model declares, and
// validates that every mutable detector node, every non-staying refinement
// node and every incoming detector relation is accounted for. A Generator
// then turns each surviving option into a variant whose detector already
// contains the refined nodes of that option.
package permutation

import (
	"slices"
	"strings"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Checker validates that a refinement model can be permuted.
type Checker struct {
	types   *topology.Hierarchy
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewChecker creates a checker resolving relation types through types.
// A nil hierarchy compares types by equality.
func NewChecker(types *topology.Hierarchy, opts ...Option) *Checker {
	cfg := newConfig(opts)
	return &Checker{
		types:   types,
		logger:  cfg.logger.With(logging.Component("permutation-checker")),
		metrics: cfg.metrics,
	}
}

// Check derives permutation mappings, permutation options and component sets
// on m and validates the result. The derived collections are reset first, and
// permutation mappings are only added when missing, so checking a model again
// yields the same state.
//
// A model that cannot be permuted yields a *NotPermutableError.
func (c *Checker) Check(m *model.RefinementModel) error {
	m.ResetDerived()
	r := &run{model: m, types: c.types, logger: c.logger}

	r.seedOptions()
	for _, d := range m.Detector.Nodes() {
		r.deriveNode(d)
	}
	r.normalizeComponentSets()

	reason := r.validate()
	c.metrics.RecordPermutabilityCheck(reason == "")
	if reason != "" {
		c.logger.Info("Permutations cannot be determined automatically",
			logging.ModelID(m.ID),
			logging.Reason(reason),
		)
		return &NotPermutableError{Model: m.ID, Reason: reason}
	}

	c.logger.Debug("permutation options derived",
		logging.ModelID(m.ID),
		logging.Count(len(m.PermutationOptions)),
		logging.Int("component_sets", len(m.ComponentSets)),
	)
	return nil
}

// run holds the state of one check.
type run struct {
	model  *model.RefinementModel
	types  *topology.Hierarchy
	logger logging.Logger
}

func (r *run) mutableNodes() []string {
	var ids []string
	for _, n := range r.model.Detector.Nodes() {
		if !r.model.IsStayPlaceholder(n.ID) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// seedOptions stores every subset of the mutable detector nodes except the
// empty one and one covering the whole detector.
func (r *run) seedOptions() {
	total := r.model.Detector.NodeCount()
	for _, subset := range powerSet(r.mutableNodes()) {
		if len(subset) == 0 || len(subset) == total {
			continue
		}
		r.model.PermutationOptions = append(r.model.PermutationOptions, model.PermutationOption(subset))
	}
}

func (r *run) deriveNode(d *topology.Node) {
	for _, mp := range r.model.Mappings {
		if !model.IsContentMapping(mp) || mp.Detector().ID != d.ID || !mp.Refinement().IsNode() {
			continue
		}
		r.checkComponentMutability(mp.Refinement().ID, d.ID, map[string]bool{})
	}

	for _, rel := range r.model.Detector.Incoming(d.ID) {
		source, _ := r.model.Detector.Node(rel.Source)
		for _, rm := range model.MappingsOf[*model.RelationMapping](r.model) {
			if rm.DetectorElement.ID != d.ID || rm.Direction != model.Incoming {
				continue
			}
			if rm.CanRedirect(rel, d.ID, source, r.types) {
				r.addPermutationMapping(model.EdgeRef(rel.ID), rm.RefinementElement)
				break
			}
		}
	}
}

// checkComponentMutability maps refinement node refID to detector node
// detectorID unless another detector node claims it, in which case both
// detector nodes end up in one component set. Unclaimed successors of refID
// are followed transitively.
func (r *run) checkComponentMutability(refID, detectorID string, visited map[string]bool) {
	if visited[refID] {
		return
	}
	visited[refID] = true

	var others []model.Mapping
	for _, mp := range r.model.Mappings {
		if model.IsContentMapping(mp) && mp.Refinement().ID == refID && mp.Detector().ID != detectorID {
			others = append(others, mp)
		}
	}

	if r.noMappingExists(detectorID, refID) {
		r.addPermutationMapping(model.NodeRef(detectorID), model.NodeRef(refID))
	} else if len(others) > 0 {
		pattern := []string{detectorID}
		for _, mp := range others {
			pattern = appendMissing(pattern, mp.Detector().ID)
		}
		r.recordPatternSet(pattern)
	}

	if len(others) > 0 {
		return
	}
	structure := r.model.RefinementStructure
	for _, rel := range structure.Outgoing(refID) {
		dependee := rel.Target
		if !r.noMappingExists(detectorID, dependee) {
			continue
		}
		var foreign []string
		for _, in := range structure.Incoming(dependee) {
			if in.Source != refID {
				foreign = append(foreign, in.Source)
			}
		}
		free := len(foreign) == 0
		for _, src := range foreign {
			if r.noMappingExists(detectorID, src) {
				free = true
				break
			}
		}
		if free {
			r.checkComponentMutability(dependee, detectorID, visited)
		}
	}
}

// noMappingExists reports whether refID is claimed by no detector element
// other than detectorID.
func (r *run) noMappingExists(detectorID, refID string) bool {
	for _, mp := range r.model.Mappings {
		if mp.Refinement().ID != refID || mp.Detector().ID == detectorID {
			continue
		}
		switch mp.(type) {
		case *model.RelationMapping, *model.AttributeMapping, *model.DeploymentArtifactMapping,
			*model.PermutationMapping, *model.StayMapping:
			return false
		}
	}
	return true
}

func (r *run) addPermutationMapping(detector, refinement model.ElementRef) {
	for _, pm := range model.MappingsOf[*model.PermutationMapping](r.model) {
		if pm.DetectorElement == detector && pm.RefinementElement == refinement {
			return
		}
	}
	r.logger.Debug("permutation mapping derived",
		logging.DetectorElement(detector.String()),
		logging.RefinementElement(refinement.String()),
	)
	r.model.AddMapping(model.NewPermutationMapping(detector, refinement))
}

// recordPatternSet drops every option that splits pattern and stores pattern
// as a component set.
func (r *run) recordPatternSet(pattern []string) {
	r.model.PermutationOptions = slices.DeleteFunc(r.model.PermutationOptions, func(o model.PermutationOption) bool {
		return !containsAll(o, pattern) && containsAny(o, pattern)
	})

	for i, cs := range r.model.ComponentSets {
		if containsAny(cs, pattern) {
			r.model.ComponentSets[i] = appendMissing(cs, pattern...)
			return
		}
	}
	r.model.ComponentSets = append(r.model.ComponentSets, model.ComponentSet(pattern))
}

// normalizeComponentSets merges overlapping sets until they are pairwise disjoint.
func (r *run) normalizeComponentSets() {
	sets := r.model.ComponentSets
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(sets) && !merged; i++ {
			for j := i + 1; j < len(sets); j++ {
				if containsAny(sets[i], sets[j]) {
					sets[i] = appendMissing(sets[i], sets[j]...)
					sets = slices.Delete(sets, j, j+1)
					merged = true
					break
				}
			}
		}
	}
	r.model.ComponentSets = sets
}

// validate returns the first failed coverage rule, or "" when m can be permuted.
func (r *run) validate() string {
	m := r.model
	pms := model.MappingsOf[*model.PermutationMapping](m)
	if len(pms) == 0 {
		return ReasonNoMappings
	}

	var unmapped []string
	for _, id := range r.mutableNodes() {
		if !slices.ContainsFunc(pms, func(pm *model.PermutationMapping) bool { return pm.DetectorElement.ID == id }) {
			unmapped = append(unmapped, id)
		}
	}
	if len(unmapped) > 0 {
		return ReasonUnmappedDetector + strings.Join(unmapped, ", ")
	}

	for _, n := range m.RefinementStructure.Nodes() {
		if m.IsStayingRefinementElement(n.ID) {
			continue
		}
		if !slices.ContainsFunc(pms, func(pm *model.PermutationMapping) bool {
			return pm.RefinementElement.ID == n.ID && pm.DetectorElement.IsNode()
		}) {
			unmapped = append(unmapped, n.ID)
		}
	}
	if len(unmapped) > 0 {
		return ReasonUnmappedRefinement + strings.Join(unmapped, ", ")
	}

	for _, id := range r.mutableNodes() {
		for _, rel := range m.Detector.Incoming(id) {
			if r.redirectable(rel, id) {
				continue
			}
			unmapped = append(unmapped, rel.ID)
			break
		}
	}
	if len(unmapped) > 0 {
		return ReasonUnredirectableEdges + strings.Join(unmapped, ", ")
	}
	return ""
}

// redirectable reports whether rel, an incoming relation of detector node
// target, has a known destination in every variant, deriving a relation
// permutation mapping when exactly one destination can be inferred.
func (r *run) redirectable(rel *topology.Edge, target string) bool {
	m := r.model
	if slices.ContainsFunc(model.MappingsOf[*model.PermutationMapping](m), func(pm *model.PermutationMapping) bool {
		return pm.DetectorElement.IsEdge() && pm.DetectorElement.ID == rel.ID
	}) {
		return true
	}
	for _, cs := range m.ComponentSets {
		if cs.Contains(rel.Source) && cs.Contains(rel.Target) {
			return true
		}
	}

	var images []model.ElementRef
	for _, pm := range model.MappingsOf[*model.PermutationMapping](m) {
		if pm.DetectorElement.IsNode() && pm.DetectorElement.ID == target && !slices.Contains(images, pm.RefinementElement) {
			images = append(images, pm.RefinementElement)
		}
	}
	if len(images) == 1 {
		r.addPermutationMapping(model.EdgeRef(rel.ID), images[0])
		return true
	}
	if len(images) == 0 {
		return false
	}

	dependee, ok := r.singleDependee(rel.Source)
	if !ok {
		return false
	}
	for _, mp := range m.Mappings {
		switch mp.(type) {
		case *model.StayMapping, *model.PermutationMapping:
			if mp.Refinement().ID == dependee && mp.Detector().IsNode() {
				r.addPermutationMapping(model.EdgeRef(rel.ID), model.NodeRef(dependee))
				return true
			}
		}
	}
	return false
}

// singleDependee returns the only refinement node that the refinement nodes
// of detector node source depend on, if there is exactly one.
func (r *run) singleDependee(source string) (string, bool) {
	m := r.model
	var refNodes []string
	for _, mp := range m.Mappings {
		switch mp.(type) {
		case *model.StayMapping, *model.PermutationMapping:
			if mp.Detector().ID == source && mp.Refinement().IsNode() {
				refNodes = appendMissing(refNodes, mp.Refinement().ID)
			}
		}
	}

	var dependees []string
	for _, id := range refNodes {
		for _, rel := range m.RefinementStructure.Outgoing(id) {
			if !contains(refNodes, rel.Target) {
				dependees = appendMissing(dependees, rel.Target)
			}
		}
	}
	if len(dependees) != 1 {
		return "", false
	}
	return dependees[0], true
}
