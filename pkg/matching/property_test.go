package matching

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-topology/pkg/topology"
)

var propertyKeys = []string{"os", "size", "zone"}

func genProperties() gopter.Gen {
	values := []string{"", "*", "linux", "LINUX", "debian"}
	return gen.SliceOfN(len(propertyKeys), gen.IntRange(0, len(values)-1)).
		Map(func(picks []int) map[string]string {
			out := make(map[string]string)
			for i, p := range picks {
				if values[p] != "" {
					out[propertyKeys[i]] = values[p]
				}
			}
			return out
		})
}

// TestMatcherPredicatesArePure checks that predicates answer the same way on
// repeated calls and never touch their inputs.
func TestMatcherPredicatesArePure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	h := topology.FlatHierarchy()

	properties.Property("fragment matcher is idempotent", prop.ForAll(
		func(det, cand map[string]string) bool {
			m := NewFragmentMatcher(h)
			d := &topology.Node{Type: serverType, Properties: det}
			c := &topology.Node{Type: serverType, Properties: cand}
			before := len(det) + len(cand)
			first := m.NodeCompatible(c, d)
			second := m.NodeCompatible(c, d)
			return first == second && len(det)+len(cand) == before
		},
		genProperties(),
		genProperties(),
	))

	properties.Property("marker compatibility is symmetric", prop.ForAll(
		func(a, b []bool) bool {
			toPolicies := func(flags []bool) []topology.Policy {
				var out []topology.Policy
				for i, f := range flags {
					if f {
						out = append(out, topology.Policy{Type: []topology.QName{stateful, elastic, security}[i%3]})
					}
				}
				return out
			}
			pa, pb := toPolicies(a), toPolicies(b)
			return BehaviorMarkersCompatible(pa, pb, patterns(), nil) ==
				BehaviorMarkersCompatible(pb, pa, patterns(), nil)
		},
		gen.SliceOfN(3, gen.Bool()),
		gen.SliceOfN(3, gen.Bool()),
	))

	properties.TestingRun(t)
}
