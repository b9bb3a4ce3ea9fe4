/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"cmp"
	"context"
	"slices"
)

// Responder picks the automated player's reply to an entity.
type Responder struct {
	dir  Directory
	logf Logf
}

func NewResponder(dir Directory, logf Logf) *Responder {
	return &Responder{
		dir:  dir,
		logf: logf,
	}
}

// ChooseNext returns an entity linked to from whose id is not in used.
//
// For a person, the best-rated dated movie they appeared in is chosen; the
// tier is not consulted. For a movie, the cast is ranked by popularity and
// the member at index tier is chosen, clamped to the least popular one, so
// higher tiers reach deeper into the cast. The boolean is false when no
// candidate is left.
func (r *Responder) ChooseNext(ctx context.Context, from Entity, used map[int]bool, tier int) (Entity, bool, error) {
	switch from.Kind {
	case KindPerson:
		return r.chooseMovie(ctx, from, used)
	case KindMovie:
		return r.choosePerson(ctx, from, used, tier)
	default:
		return Entity{}, false, nil
	}
}

func (r *Responder) chooseMovie(ctx context.Context, person Entity, used map[int]bool) (Entity, bool, error) {
	credits, err := r.dir.MovieCredits(ctx, person.ID)
	if err != nil {
		return Entity{}, false, unavailable(err)
	}

	available := make([]Entity, 0, len(credits))
	for _, m := range credits {
		if m.ReleaseDate == "" || used[m.ID] {
			continue
		}

		m.Kind = KindMovie
		available = append(available, m)
	}

	if len(available) == 0 {
		r.logf.printf("AUTO: No unused dated movies left for %q (%d credits)", person.Name, len(credits))

		return Entity{}, false, nil
	}

	slices.SortStableFunc(available, func(a, b Entity) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	return available[0], true, nil
}

func (r *Responder) choosePerson(ctx context.Context, movie Entity, used map[int]bool, tier int) (Entity, bool, error) {
	cast, err := r.dir.MovieCast(ctx, movie.ID)
	if err != nil {
		return Entity{}, false, unavailable(err)
	}

	ranked := slices.Clone(cast)
	slices.SortStableFunc(ranked, func(a, b Entity) int {
		return cmp.Compare(b.Popularity, a.Popularity)
	})

	available := ranked[:0]
	for _, p := range ranked {
		if used[p.ID] {
			continue
		}

		p.Kind = KindPerson
		available = append(available, p)
	}

	if len(available) == 0 {
		r.logf.printf("AUTO: No unused cast members left for %q (%d credited)", movie.Name, len(cast))

		return Entity{}, false, nil
	}

	index := min(max(tier, 0), len(available)-1)

	return available[index], true, nil
}
