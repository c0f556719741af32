package permutation

// powerSet returns every subset of ids, each keeping the order of ids.
// Subsets are ordered by the bit pattern of their members, so {a}, {b},
// {a, b}, {c}, ... for input [a b c].
func powerSet(ids []string) [][]string {
	n := len(ids)
	out := make([][]string, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		var subset []string
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				subset = append(subset, id)
			}
		}
		out = append(out, subset)
	}
	return out
}

func containsAll(set, want []string) bool {
	for _, w := range want {
		if !contains(set, w) {
			return false
		}
	}
	return true
}

func containsAny(set, want []string) bool {
	for _, w := range want {
		if contains(set, w) {
			return true
		}
	}
	return false
}

func contains(set []string, id string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

func appendMissing(set []string, ids ...string) []string {
	for _, id := range ids {
		if !contains(set, id) {
			set = append(set, id)
		}
	}
	return set
}
