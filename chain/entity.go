/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package chain implements the movie/actor chain game: resolving free-text
// guesses to directory entities, validating that each guess links to the
// previous link in the chain, and choosing the automated player's replies.
package chain

import (
	"strconv"
	"strings"
)

// Kind distinguishes movies from people.
type Kind int

const (
	KindUnknown Kind = iota
	KindMovie
	KindPerson
)

func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindPerson:
		return "person"
	default:
		return "unknown"
	}
}

// Opposite returns the kind that must follow k in a chain.
func (k Kind) Opposite() Kind {
	switch k {
	case KindMovie:
		return KindPerson
	case KindPerson:
		return KindMovie
	default:
		return KindUnknown
	}
}

// ParseKind accepts the names used by the directory and the browser client.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "film":
		return KindMovie
	case "person", "actor", "actress":
		return KindPerson
	default:
		return KindUnknown
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))

	return nil
}

// Entity is a movie or a person as known to the media directory.
type Entity struct {
	ID           int     `json:"id"`
	Kind         Kind    `json:"kind"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name,omitempty"`
	Overview     string  `json:"-"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	Popularity   float64 `json:"popularity"`
	VoteCount    int     `json:"vote_count,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	ImagePath    string  `json:"image_path,omitempty"`
}

// ReleaseYear returns the four digit year of a movie's release date, or 0
// when the date is missing or malformed.
func (e Entity) ReleaseYear() int {
	if len(e.ReleaseDate) < 4 {
		return 0
	}

	year, err := strconv.Atoi(e.ReleaseDate[:4])
	if err != nil {
		return 0
	}

	return year
}

// Score is the quality ranking used when choosing a movie.
func (e Entity) Score() float64 {
	return float64(e.VoteCount) * e.VoteAverage
}

func (e Entity) String() string {
	if year := e.ReleaseYear(); e.Kind == KindMovie && year > 0 {
		return e.Name + " (" + strconv.Itoa(year) + ")"
	}

	return e.Name
}
