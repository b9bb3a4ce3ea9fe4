/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"cmp"
	"context"
	"slices"
	"strings"
)

// Resolver turns free text into directory entities of an expected kind.
type Resolver struct {
	dir    Directory
	filter *ContentFilter
	logf   Logf
}

func NewResolver(dir Directory, filter *ContentFilter, logf Logf) *Resolver {
	return &Resolver{
		dir:    dir,
		filter: filter,
		logf:   logf,
	}
}

// Candidates returns the allowed entities of kind matching query, most
// popular first. The combined search is tried first; when it yields nothing
// of the expected kind, the kind-specific search is used instead.
func (r *Resolver) Candidates(ctx context.Context, query string, kind Kind) ([]Entity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	results, err := r.dir.SearchCombined(ctx, query)
	if err != nil {
		return nil, unavailable(err)
	}

	candidates := make([]Entity, 0, len(results))
	for _, e := range results {
		if e.Kind == kind {
			candidates = append(candidates, e)
		}
	}
	candidates = r.filter.Apply(candidates)

	if len(candidates) == 0 {
		r.logf.printf("RESOLVE: No %s results for %q from combined search, falling back", kind, query)

		results, err = r.dir.SearchByKind(ctx, query, kind)
		if err != nil {
			return nil, unavailable(err)
		}

		for i := range results {
			results[i].Kind = kind
		}
		candidates = r.filter.Apply(results)
	}

	slices.SortStableFunc(candidates, func(a, b Entity) int {
		return cmp.Compare(b.Popularity, a.Popularity)
	})

	return candidates, nil
}

// Resolve returns the single best entity for query, or ErrNoMatch.
func (r *Resolver) Resolve(ctx context.Context, query string, kind Kind) (Entity, error) {
	candidates, err := r.Candidates(ctx, query, kind)
	if err != nil {
		return Entity{}, err
	}

	matches := ResolvePolicy.Match(query, candidates)
	if len(matches) == 0 {
		r.logf.printf("RESOLVE: No %s matched %q among %d candidates", kind, query, len(candidates))

		return Entity{}, ErrNoMatch
	}

	r.logf.printf("RESOLVE: Matched %q to %s %q (%d)", query, kind, matches[0].Name, matches[0].ID)

	return matches[0], nil
}

// Suggest returns up to five close matches for interactive completion.
func (r *Resolver) Suggest(ctx context.Context, query string, kind Kind) ([]Entity, error) {
	candidates, err := r.Candidates(ctx, query, kind)
	if err != nil {
		return nil, err
	}

	return SuggestPolicy.Match(query, candidates), nil
}
