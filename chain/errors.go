/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"errors"
)

var (
	ErrEmptyInput           = errors.New("empty input")
	ErrNoMatch              = errors.New("no matching entity")
	ErrTooDivergent         = errors.New("input too far from matched name")
	ErrAlreadyUsed          = errors.New("entity already used")
	ErrNotLinked            = errors.New("entity not linked to previous entity")
	ErrDirectoryUnavailable = errors.New("media directory unavailable")
	ErrNoAutoMove           = errors.New("no automated move available")
	ErrNotStarted           = errors.New("game not started")
	ErrSessionEnded         = errors.New("game already ended")
	ErrOutOfTurn            = errors.New("not the player's turn")
)

var codes = []struct {
	err     error
	code    string
	message string
}{
	{ErrEmptyInput, "empty_input", "Type a name first."},
	{ErrNoMatch, "no_match", "I couldn't find that. Try again."},
	{ErrTooDivergent, "too_divergent", "Oops, that doesn't match closely enough. Check your spelling."},
	{ErrAlreadyUsed, "already_used", "That one has already been used."},
	{ErrNotLinked, "not_linked", "That doesn't link! Make sure the actor was in the movie."},
	{ErrDirectoryUnavailable, "directory_unavailable", "The movie database is not responding right now. This one is not on you; try again shortly."},
	{ErrNoAutoMove, "no_auto_move", "I can't think of a reply. You win this round!"},
	{ErrNotStarted, "not_started", "Pick whether to start with an actor or a movie."},
	{ErrSessionEnded, "session_ended", "This game is over. Start a new one."},
	{ErrOutOfTurn, "out_of_turn", "Hang on, it's my turn."},
}

// Code returns a stable identifier for err, suitable for sending to clients.
func Code(err error) string {
	if err == nil {
		return ""
	}

	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return "internal"
}

// Message returns player-facing text for err. Wrapped causes are never shown.
func Message(err error) string {
	if err == nil {
		return ""
	}

	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.message
		}
	}

	return "Something went wrong. Please try again."
}

// PlayerFault reports whether err was caused by the player's input, as
// opposed to the directory or the automated player.
func PlayerFault(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrDirectoryUnavailable), errors.Is(err, ErrNoAutoMove):
		return false
	}

	return Code(err) != "internal"
}
