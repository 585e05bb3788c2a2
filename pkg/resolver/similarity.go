package resolver

import "strings"

// SequenceMatcherRatio computes a similarity ratio in [0, 1] between two
// normalized strings, following the classic Ratcliff/Obershelp algorithm
// (Python's difflib.SequenceMatcher.ratio): find the longest matching
// block, recurse on the unmatched prefix/suffix, then
// ratio = 2 * matches / (len(a) + len(b)). No string-similarity library
// appears anywhere in the examples pack, so this is a deliberate
// standard-library-only implementation (see DESIGN.md).
func SequenceMatcherRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	matches := matchingCharacters(a, b)
	return 2.0 * float64(matches) / float64(len(a)+len(b))
}

// matchingCharacters recursively finds the longest common contiguous
// substring and sums its length with the matches found in the unmatched
// prefix and suffix on either side.
func matchingCharacters(a, b string) int {
	start, length := longestMatch(a, b)
	if length == 0 {
		return 0
	}
	matched := length
	matched += matchingCharacters(a[:start[0]], b[:start[1]])
	matched += matchingCharacters(a[start[0]+length:], b[start[1]+length:])
	return matched
}

// longestMatch finds the longest common substring between a and b,
// returning its start offsets in each string and its length.
func longestMatch(a, b string) (start [2]int, length int) {
	if len(a) == 0 || len(b) == 0 {
		return start, 0
	}

	// prevRow[j] = length of the common suffix ending at a[i-1], b[j-1].
	prevRow := make([]int, len(b)+1)
	bestLen := 0
	bestA, bestB := 0, 0

	for i := 1; i <= len(a); i++ {
		currRow := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				currRow[j] = prevRow[j-1] + 1
				if currRow[j] > bestLen {
					bestLen = currRow[j]
					bestA = i - currRow[j]
					bestB = j - currRow[j]
				}
			}
		}
		prevRow = currRow
	}

	return [2]int{bestA, bestB}, bestLen
}
