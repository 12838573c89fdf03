package selection

import "strings"

// MatchScore computes the keyword overlap between two texts: the number of
// source keywords also present in the target's keyword set, divided by the
// larger of the two keyword counts. Duplicate source keywords each count.
// Returns 0 when either side has no keywords.
func MatchScore(source, target string) float64 {
	src := ExtractKeywords(source)
	tgt := ExtractKeywords(target)
	if len(src) == 0 || len(tgt) == 0 {
		return 0
	}

	tgtSet := make(map[string]struct{}, len(tgt))
	for _, k := range tgt {
		tgtSet[k] = struct{}{}
	}

	matches := 0
	for _, k := range src {
		if _, ok := tgtSet[k]; ok {
			matches++
		}
	}

	denom := len(src)
	if len(tgt) > denom {
		denom = len(tgt)
	}
	return float64(matches) / float64(denom)
}

// ContainsKeyword reports whether the lower-cased source string contains
// any keyword of target as a substring. Substring containment, not a
// token-boundary match.
func ContainsKeyword(source, target string) bool {
	src := strings.ToLower(source)
	for _, k := range ExtractKeywords(target) {
		if strings.Contains(src, k) {
			return true
		}
	}
	return false
}
