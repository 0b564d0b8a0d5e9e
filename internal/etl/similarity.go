package etl

import "strings"

// Similarity returns the Ratcliff/Obershelp similarity ratio between two
// strings in [0, 1]. Both inputs are lower-cased and trimmed before
// comparison, matching the normalization used for publication titles.
// The ratio is 2*M/T where M is the total number of characters in matching
// blocks and T is the combined length of both strings.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	matched := matchingBlocks(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

// matchingBlocks returns the total number of characters covered by the
// recursive longest-matching-block decomposition of a and b.
func matchingBlocks(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}

	return size +
		matchingBlocks(a[:ai], b[:bi]) +
		matchingBlocks(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common substring of a and b, returning its
// start offsets and length. Ties resolve to the earliest match in a, then b.
func longestMatch(a, b []rune) (bestA, bestB, bestSize int) {
	// lengths[j] is the length of the common suffix ending at a[i-1], b[j-1]
	// from the previous row of the implicit DP table.
	lengths := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		// Walk the row backwards so lengths[j-1] still holds the previous
		// row's value when we read it.
		for j := len(b); j >= 1; j-- {
			if a[i-1] == b[j-1] {
				lengths[j] = lengths[j-1] + 1
				if lengths[j] > bestSize {
					bestSize = lengths[j]
					bestA = i - bestSize
					bestB = j - bestSize
				}
			} else {
				lengths[j] = 0
			}
		}
	}

	return bestA, bestB, bestSize
}
