/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"strings"

	"github.com/Seednode/moviechain/textmatch"
)

// Policy controls how a query is matched against ranked candidates.
//
// Matching runs in three tiers. A candidate whose normalized name equals the
// normalized query is returned alone. Otherwise candidates within MaxDistance
// edits are collected, followed (when Substring is set) by candidates whose
// normalized name contains the query. Candidate order is preserved within
// each tier and at most MaxResults are returned; zero means no limit.
type Policy struct {
	MaxResults  int
	MaxDistance int
	Substring   bool
}

var (
	// ResolvePolicy picks the single best entity for a submitted guess.
	ResolvePolicy = Policy{MaxResults: 1, MaxDistance: 2, Substring: true}

	// SuggestPolicy lists autocomplete suggestions while the player types.
	SuggestPolicy = Policy{MaxResults: 5, MaxDistance: 2, Substring: false}
)

func (p Policy) full(n int) bool {
	return p.MaxResults > 0 && n >= p.MaxResults
}

// Match applies the policy to candidates, which should already be ranked.
func (p Policy) Match(query string, candidates []Entity) []Entity {
	q := textmatch.Loose(query)
	if q == "" {
		return nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = textmatch.Loose(c.Name)

		if names[i] == q {
			return []Entity{c}
		}
	}

	var matches []Entity
	taken := make([]bool, len(candidates))

	for i, c := range candidates {
		if p.full(len(matches)) {
			return matches
		}

		if names[i] != "" && textmatch.Within(names[i], q, p.MaxDistance) {
			matches = append(matches, c)
			taken[i] = true
		}
	}

	if !p.Substring {
		return matches
	}

	for i, c := range candidates {
		if p.full(len(matches)) {
			break
		}

		if !taken[i] && strings.Contains(names[i], q) {
			matches = append(matches, c)
		}
	}

	return matches
}
