// Package fuzzy provides two-phase string-similarity matching over the
// vocabulary: a cheap whole-string ratio scan to bound the candidate set,
// then a token-level bidirectional rescore that rewards structural overlap
// (e.g. "heart_pupils" vs "heart-shaped_pupils") that a pure whole-string
// ratio misses.
package fuzzy

// indelDistance calculates the minimum number of insertions and deletions
// required to change one string into another (Levenshtein without
// substitutions). This is a pure function with no side effects.
func indelDistance(a, b string) int {
	if a == b {
		return 0
	}
	// Rune counts, not byte lengths; Ratio divides by rune lengths.
	if len(a) == 0 {
		return len([]rune(b))
	}
	if len(b) == 0 {
		return len([]rune(a))
	}

	// Convert to runes for proper Unicode handling
	runesA := []rune(a)
	runesB := []rune(b)
	lenA := len(runesA)
	lenB := len(runesB)

	// Two rows are enough for space efficiency
	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)

	for j := 0; j <= lenB; j++ {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i
		for j := 1; j <= lenB; j++ {
			if runesA[i-1] == runesB[j-1] {
				curr[j] = prev[j-1]
			} else {
				// Minimum of: deletion, insertion (no substitution)
				curr[j] = minTwo(prev[j], curr[j-1]) + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lenB]
}

// Ratio returns a 0-100 similarity score between two strings based on indel
// distance: 100 * (1 - distance/(len(a)+len(b))). Two empty strings score 100.
func Ratio(a, b string) float64 {
	lenA := len([]rune(a))
	lenB := len([]rune(b))
	if lenA+lenB == 0 {
		return 100
	}
	dist := indelDistance(a, b)
	return 100 * (1 - float64(dist)/float64(lenA+lenB))
}

// ratioUpperBound returns the best Ratio two strings of the given rune
// lengths could achieve. Distance is at least the length difference, so this
// lets the scan skip strings that cannot reach the cutoff.
func ratioUpperBound(lenA, lenB int) float64 {
	if lenA+lenB == 0 {
		return 100
	}
	diff := lenA - lenB
	if diff < 0 {
		diff = -diff
	}
	return 100 * (1 - float64(diff)/float64(lenA+lenB))
}

func minTwo(a, b int) int {
	if a <= b {
		return a
	}
	return b
}
