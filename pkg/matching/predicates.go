package matching

import (
	"strings"

	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Wildcard as a detector property value requires any non-empty candidate value.
const Wildcard = "*"

// TypeCompatible reports whether candidate equals or transitively derives from detector.
func TypeCompatible(types *topology.Hierarchy, candidate, detector topology.QName) bool {
	return types.IsSubtypeOf(candidate, detector)
}

// ValueCompatible compares one detector property value with a candidate value.
// Empty detector values match anything; otherwise the comparison ignores case.
// With allowWildcard, "*" matches any non-empty candidate value.
func ValueCompatible(detectorValue, candidateValue string, allowWildcard bool) bool {
	if detectorValue == "" {
		return true
	}
	if allowWildcard && detectorValue == Wildcard {
		return candidateValue != ""
	}
	return strings.EqualFold(detectorValue, candidateValue)
}

// PropertiesCompatible checks the given detector keys against the candidate.
// A nil keys slice checks every detector property.
func PropertiesCompatible(detector, candidate map[string]string, keys []string, allowWildcard bool) bool {
	return len(MismatchedProperties(detector, candidate, keys, allowWildcard)) == 0
}

// MismatchedProperties returns the detector keys whose values the candidate does not satisfy,
// sorted for stable output.
func MismatchedProperties(detector, candidate map[string]string, keys []string, allowWildcard bool) []string {
	if keys == nil {
		keys = sortedKeys(detector)
	}
	var out []string
	for _, k := range keys {
		if !ValueCompatible(detector[k], candidate[k], allowWildcard) {
			out = append(out, k)
		}
	}
	return out
}

// BehaviorMarkersCompatible requires every behavior pattern on either side to
// appear on the other, unless it belongs to the initial set. Policies outside
// pattern namespaces are ignored.
func BehaviorMarkersCompatible(detector, candidate []topology.Policy, ns NamespaceChecker, initial []topology.Policy) bool {
	return markersCovered(detector, candidate, ns, initial) &&
		markersCovered(candidate, detector, ns, initial)
}

func markersCovered(from, to []topology.Policy, ns NamespaceChecker, initial []topology.Policy) bool {
	for _, p := range from {
		if ns == nil || !ns.IsPatternNamespace(p.Type.Namespace) || containsPolicy(initial, p) {
			continue
		}
		if !hasMatchingMarker(to, p) {
			return false
		}
	}
	return true
}

func hasMatchingMarker(policies []topology.Policy, want topology.Policy) bool {
	for _, p := range policies {
		if p.Type != want.Type {
			continue
		}
		if want.Ref.IsZero() || p.Ref == want.Ref {
			return true
		}
	}
	return false
}

func containsPolicy(policies []topology.Policy, p topology.Policy) bool {
	for _, q := range policies {
		if q == p {
			return true
		}
	}
	return false
}
