package matching

import (
	"sort"

	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// FragmentMatcher is used for topology fragment refinement: types must be
// compatible and every non-empty detector property must match, with "*"
// accepting any value.
type FragmentMatcher struct {
	TypeMatcher
}

// NewFragmentMatcher creates the matcher for topology fragment refinement.
// A nil hierarchy compares types by equality.
func NewFragmentMatcher(types *topology.Hierarchy) *FragmentMatcher {
	return &FragmentMatcher{TypeMatcher{Types: types}}
}

func (m *FragmentMatcher) NodeCompatible(candidate, detector *topology.Node) bool {
	return m.TypeMatcher.NodeCompatible(candidate, detector) &&
		PropertiesCompatible(detector.Properties, candidate.Properties, nil, true)
}

func (m *FragmentMatcher) EdgeCompatible(candidate, detector *topology.Edge) bool {
	return m.TypeMatcher.EdgeCompatible(candidate, detector) &&
		PropertiesCompatible(detector.Properties, candidate.Properties, nil, true)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
