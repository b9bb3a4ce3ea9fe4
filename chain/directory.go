/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Seednode/moviechain/textmatch"
)

// Directory is the remote media database the game validates against.
type Directory interface {
	// SearchCombined searches movies and people at once. Every result
	// carries its Kind.
	SearchCombined(ctx context.Context, text string) ([]Entity, error)

	// SearchByKind searches a single kind. Results may be left untagged.
	SearchByKind(ctx context.Context, text string, kind Kind) ([]Entity, error)

	// MovieCredits lists the movies a person acted in.
	MovieCredits(ctx context.Context, personID int) ([]Entity, error)

	// MovieCast lists the people who acted in a movie.
	MovieCast(ctx context.Context, movieID int) ([]Entity, error)
}

// Logf receives diagnostic output. A nil Logf discards it.
type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

func unavailable(err error) error {
	if errors.Is(err, ErrDirectoryUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
}

// Linked reports whether next may follow prev in a chain: a person must be
// in the movie's cast, a movie must be among the person's credits. Names are
// compared with strict normalized equality; near-miss titles do not link.
func Linked(ctx context.Context, dir Directory, prev, next Entity) (bool, error) {
	if prev.Kind == next.Kind || prev.Kind == KindUnknown || next.Kind == KindUnknown {
		return false, nil
	}

	var (
		credits []Entity
		err     error
	)

	if prev.Kind == KindPerson {
		credits, err = dir.MovieCredits(ctx, prev.ID)
	} else {
		credits, err = dir.MovieCast(ctx, prev.ID)
	}
	if err != nil {
		return false, unavailable(err)
	}

	for _, c := range credits {
		if c.ID == next.ID && c.ID != 0 {
			return true, nil
		}

		// People must match by name exactly, ignoring only case. Titles
		// compare under the loose profile, falling back to the original
		// title when a credit has no localized one.
		if next.Kind == KindPerson {
			if next.Name != "" && strings.EqualFold(c.Name, next.Name) {
				return true, nil
			}

			continue
		}

		if textmatch.SameName(c.Name, next.Name) {
			return true, nil
		}

		if c.Name == "" && textmatch.SameName(c.OriginalName, next.Name) {
			return true, nil
		}
	}

	return false, nil
}
