package chain

import (
	"context"
	"errors"
	"sync"
)

var errOffline = errors.New("dial tcp: connection refused")

// fakeDirectory serves canned results keyed by the exact query text.
type fakeDirectory struct {
	mu sync.Mutex

	combined map[string][]Entity
	byKind   map[Kind]map[string][]Entity
	credits  map[int][]Entity
	cast     map[int][]Entity
	err      error

	calls []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		combined: make(map[string][]Entity),
		byKind: map[Kind]map[string][]Entity{
			KindMovie:  {},
			KindPerson: {},
		},
		credits: make(map[int][]Entity),
		cast:    make(map[int][]Entity),
	}
}

func (f *fakeDirectory) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)

	return f.err
}

func (f *fakeDirectory) SearchCombined(_ context.Context, text string) ([]Entity, error) {
	if err := f.record("combined:" + text); err != nil {
		return nil, err
	}

	return append([]Entity(nil), f.combined[text]...), nil
}

func (f *fakeDirectory) SearchByKind(_ context.Context, text string, kind Kind) ([]Entity, error) {
	if err := f.record(kind.String() + ":" + text); err != nil {
		return nil, err
	}

	var out []Entity
	for _, e := range f.byKind[kind][text] {
		e.Kind = KindUnknown
		out = append(out, e)
	}

	return out, nil
}

func (f *fakeDirectory) MovieCredits(_ context.Context, personID int) ([]Entity, error) {
	if err := f.record("credits"); err != nil {
		return nil, err
	}

	return append([]Entity(nil), f.credits[personID]...), nil
}

func (f *fakeDirectory) MovieCast(_ context.Context, movieID int) ([]Entity, error) {
	if err := f.record("cast"); err != nil {
		return nil, err
	}

	return append([]Entity(nil), f.cast[movieID]...), nil
}

var (
	tomHanks     = Entity{ID: 31, Kind: KindPerson, Name: "Tom Hanks", Popularity: 60}
	robinWright  = Entity{ID: 32, Kind: KindPerson, Name: "Robin Wright", Popularity: 30}
	garySinise   = Entity{ID: 33, Kind: KindPerson, Name: "Gary Sinise", Popularity: 20}
	sallyField   = Entity{ID: 35, Kind: KindPerson, Name: "Sally Field", Popularity: 25}
	helenHunt    = Entity{ID: 9994, Kind: KindPerson, Name: "Helen Hunt", Popularity: 15}
	marlonBrando = Entity{ID: 3084, Kind: KindPerson, Name: "Marlon Brando", Popularity: 40}

	forrestGump = Entity{ID: 13, Kind: KindMovie, Name: "Forrest Gump", ReleaseDate: "1994-06-23", Popularity: 70, VoteCount: 27000, VoteAverage: 8.5}
	castAway    = Entity{ID: 8358, Kind: KindMovie, Name: "Cast Away", ReleaseDate: "2000-12-22", Popularity: 40, VoteCount: 11000, VoteAverage: 7.7}
	big         = Entity{ID: 2280, Kind: KindMovie, Name: "Big", ReleaseDate: "1988-06-03", Popularity: 20, VoteCount: 4000, VoteAverage: 7.1}
	godfather   = Entity{ID: 238, Kind: KindMovie, Name: "The Godfather", ReleaseDate: "1972-03-14", Popularity: 90, VoteCount: 20000, VoteAverage: 8.7}
)

// hanksDirectory is a small slice of the real movie graph.
func hanksDirectory() *fakeDirectory {
	f := newFakeDirectory()

	f.combined["Tom Hanks"] = []Entity{tomHanks}
	f.combined["tom hanks"] = []Entity{tomHanks}
	f.combined["Forest Gump"] = []Entity{forrestGump, tomHanks}
	f.combined["Forrest Gump"] = []Entity{forrestGump}
	f.combined["Cast Away"] = []Entity{castAway}
	f.combined["The Godfather"] = []Entity{godfather, marlonBrando}
	f.combined["Robin Wright"] = []Entity{robinWright}
	f.combined["Marlon Brando"] = []Entity{marlonBrando}

	f.credits[tomHanks.ID] = []Entity{big, castAway, forrestGump}
	f.credits[robinWright.ID] = []Entity{forrestGump}
	f.credits[marlonBrando.ID] = []Entity{godfather}
	f.credits[helenHunt.ID] = []Entity{castAway}

	f.cast[forrestGump.ID] = []Entity{robinWright, tomHanks, garySinise, sallyField}
	f.cast[castAway.ID] = []Entity{helenHunt, tomHanks}
	f.cast[godfather.ID] = []Entity{marlonBrando}
	f.cast[big.ID] = []Entity{tomHanks}

	return f
}
