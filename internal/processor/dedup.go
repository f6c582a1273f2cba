package processor

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DedupThreshold is the similarity ratio above which two list entries are
// considered the same item during merge deduplication.
const DedupThreshold = 85.0

// FuzzyRatio returns a 0-100 similarity score between two strings,
// case-insensitive, derived from Levenshtein distance over the longer
// string's length. Identical strings score 100.
func FuzzyRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 100.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 100.0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	ratio := (1.0 - float64(dist)/float64(longest)) * 100.0
	if ratio < 0 {
		return 0.0
	}
	return ratio
}

// IsFuzzyDuplicate reports whether a and b are near-identical under
// DedupThreshold.
func IsFuzzyDuplicate(a, b string) bool {
	return FuzzyRatio(a, b) > DedupThreshold
}
