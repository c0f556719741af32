package matching

import (
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// DetectionMatcher is used for pattern detection. A property mismatch is
// excused when a BehaviorPatternMapping of the detector element references
// the same key: the element still matches and the related behavior pattern
// is dropped after substitution. Use ExcusedProperties to learn which keys
// were excused for a pair.
type DetectionMatcher struct {
	TypeMatcher
	model *model.RefinementModel
}

// NewDetectionMatcher creates the matcher for pattern detection with the
// reversed model m.
func NewDetectionMatcher(m *model.RefinementModel, types *topology.Hierarchy) *DetectionMatcher {
	return &DetectionMatcher{TypeMatcher: TypeMatcher{Types: types}, model: m}
}

func (m *DetectionMatcher) NodeCompatible(candidate, detector *topology.Node) bool {
	return m.TypeMatcher.NodeCompatible(candidate, detector) &&
		m.propertiesCompatible(detector.ID, detector.Properties, candidate.Properties)
}

func (m *DetectionMatcher) EdgeCompatible(candidate, detector *topology.Edge) bool {
	return m.TypeMatcher.EdgeCompatible(candidate, detector) &&
		m.propertiesCompatible(detector.ID, detector.Properties, candidate.Properties)
}

func (m *DetectionMatcher) propertiesCompatible(detectorID string, detector, candidate map[string]string) bool {
	for _, key := range MismatchedProperties(detector, candidate, nil, false) {
		if !behaviorPatternReferences(m.model, detectorID, key) {
			return false
		}
	}
	return true
}

// ExcusedProperties returns the keys of the detector element whose values the
// candidate does not match but which a BehaviorPatternMapping references.
func ExcusedProperties(m *model.RefinementModel, detectorID string, detector, candidate map[string]string) []string {
	var out []string
	for _, key := range MismatchedProperties(detector, candidate, nil, false) {
		if behaviorPatternReferences(m, detectorID, key) {
			out = append(out, key)
		}
	}
	return out
}

func behaviorPatternReferences(m *model.RefinementModel, detectorID, key string) bool {
	for _, bpm := range model.MappingsOf[*model.BehaviorPatternMapping](m) {
		if bpm.DetectorElement.ID == detectorID && bpm.Property.Key == key {
			return true
		}
	}
	return false
}
