/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package textmatch

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// Distance returns the case-insensitive Levenshtein distance between a and b,
// counted in runes.
func Distance(a, b string) int {
	return edlib.LevenshteinDistance(strings.ToLower(a), strings.ToLower(b))
}

// Within reports whether a and b are at most limit edits apart.
func Within(a, b string, limit int) bool {
	if limit < 0 {
		return false
	}

	return Distance(a, b) <= limit
}
