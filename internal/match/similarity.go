// Package match scores extracted certificate fields against a registry
// record using fuzzy text similarity and a weighted aggregate.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity returns a normalized edit-distance ratio in [0,1] between two
// strings, case-insensitive and whitespace-collapsed. Equal strings after
// normalization score 1.0; either side empty scores 0.
func Similarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	distance := levenshtein.ComputeDistance(na, nb)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return 1 - float64(distance)/float64(longest)
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces, so OCR line breaks inside a value do not count as differences.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
