/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package textmatch canonicalizes movie titles and person names so that
// player input can be compared against directory records regardless of
// typography, and measures how far apart two names are.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"‚", "'",
	"ʻ", "'",
	"′", "'",
	"‵", "'",
)

// stripDiacritics drops combining marks. Invalid UTF-8 is removed first so
// every input goes through the same transform.
func stripDiacritics(s string) string {
	s = strings.ToValidUTF8(s, "")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	result, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}

	return result
}

// FoldApostrophes replaces typographic apostrophes and primes with a plain '.
func FoldApostrophes(s string) string {
	return apostrophes.Replace(s)
}

// Loose is the matching profile. Accents, punctuation, whitespace and hyphens
// are removed and the result is lowercased, so "Spider-Man: No Way Home" and
// "spiderman no way home" compare equal.
func Loose(s string) string {
	s = strings.ToLower(FoldApostrophes(stripDiacritics(s)))

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Display is the presentation profile: accents are stripped, whitespace runs
// collapse to a single space and every word is title-cased.
func Display(s string) string {
	s = FoldApostrophes(stripDiacritics(s))
	s = strings.Join(strings.Fields(s), " ")

	// A Caser keeps state between calls, so one is built per call.
	return cases.Title(language.Und).String(s)
}

// SameName reports whether two names are identical under the matching
// profile. Names that normalize to nothing never match.
func SameName(a, b string) bool {
	la := Loose(a)

	return la != "" && la == Loose(b)
}
