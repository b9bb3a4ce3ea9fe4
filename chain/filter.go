/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"strings"

	"github.com/coregx/ahocorasick"
)

// DefaultBlockedTerms keeps adult titles out of search results.
var DefaultBlockedTerms = []string{"adult", "erotic", "porn", "xxx"}

// ContentFilter drops entities whose name or overview mentions a blocked
// term. Matching is a case-insensitive substring search.
type ContentFilter struct {
	ac    *ahocorasick.Automaton
	terms []string
}

func NewContentFilter(terms []string) (*ContentFilter, error) {
	seen := make(map[string]bool, len(terms))
	patterns := make([]string, 0, len(terms))

	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true
		patterns = append(patterns, t)
	}

	f := &ContentFilter{terms: patterns}
	if len(patterns) == 0 {
		return f, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	f.ac = automaton

	return f, nil
}

// Terms returns the normalized blocked terms.
func (f *ContentFilter) Terms() []string {
	return append([]string(nil), f.terms...)
}

// Allowed reports whether e passes the filter.
func (f *ContentFilter) Allowed(e Entity) bool {
	if f == nil || f.ac == nil {
		return true
	}

	haystack := []byte(strings.ToLower(e.Name + "\n" + e.OriginalName + "\n" + e.Overview))

	return len(f.ac.FindAllOverlapping(haystack)) == 0
}

// Apply returns the allowed entities, preserving order.
func (f *ContentFilter) Apply(entities []Entity) []Entity {
	out := entities[:0:0]

	for _, e := range entities {
		if f.Allowed(e) {
			out = append(out, e)
		}
	}

	return out
}
