/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Seednode/moviechain/textmatch"
)

const (
	// DefaultDifficultyStep is how many automated turns pass before the
	// automated player starts picking less popular cast members.
	DefaultDifficultyStep = 5

	// MaxInputDistance is how far a guess may be from the resolved name.
	MaxInputDistance = 2
)

type State int

const (
	AwaitingStart State = iota
	AwaitingUserTurn
	AwaitingAutoTurn
	Ended
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting_start"
	case AwaitingUserTurn:
		return "awaiting_user_turn"
	case AwaitingAutoTurn:
		return "awaiting_auto_turn"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UsedSets tracks what has been played so nothing repeats. The automated
// player never picks an id from its own sets, and a player's name is
// rejected once it is in the matching user set.
type UsedSets struct {
	AutoMovieIDs    map[int]bool
	AutoPersonIDs   map[int]bool
	UserPersonNames map[string]bool
	UserMovieNames  map[string]bool
}

func newUsedSets() UsedSets {
	return UsedSets{
		AutoMovieIDs:    make(map[int]bool),
		AutoPersonIDs:   make(map[int]bool),
		UserPersonNames: make(map[string]bool),
		UserMovieNames:  make(map[string]bool),
	}
}

func (u UsedSets) userNames(kind Kind) map[string]bool {
	if kind == KindMovie {
		return u.UserMovieNames
	}

	return u.UserPersonNames
}

func (u UsedSets) autoIDs(kind Kind) map[int]bool {
	if kind == KindMovie {
		return u.AutoMovieIDs
	}

	return u.AutoPersonIDs
}

type Options struct {
	Filter         *ContentFilter
	DifficultyStep int
	Logf           Logf
}

// Turn is the outcome of a full round: the player's entity and, when the
// automated player could answer, its reply.
type Turn struct {
	User Entity  `json:"user"`
	Auto *Entity `json:"auto,omitempty"`
}

// Engine holds one game session. It is not safe for concurrent use; a
// session's turns are expected to run one at a time.
type Engine struct {
	dir       Directory
	resolver  *Resolver
	responder *Responder
	logf      Logf
	step      int

	state     State
	expecting Kind
	chain     []Entity
	used      UsedSets
	autoTurns int
}

func NewEngine(dir Directory, opts Options) *Engine {
	step := opts.DifficultyStep
	if step <= 0 {
		step = DefaultDifficultyStep
	}

	return &Engine{
		dir:       dir,
		resolver:  NewResolver(dir, opts.Filter, opts.Logf),
		responder: NewResponder(dir, opts.Logf),
		logf:      opts.Logf,
		step:      step,
		used:      newUsedSets(),
	}
}

// Resolver exposes the engine's resolver for autocomplete.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

func (e *Engine) State() State {
	return e.state
}

// Expecting returns the kind the player must submit next.
func (e *Engine) Expecting() Kind {
	return e.expecting
}

// Chain returns a copy of the chain so far.
func (e *Engine) Chain() []Entity {
	return slices.Clone(e.chain)
}

func (e *Engine) Last() (Entity, bool) {
	if len(e.chain) == 0 {
		return Entity{}, false
	}

	return e.chain[len(e.chain)-1], true
}

func (e *Engine) AutoTurns() int {
	return e.autoTurns
}

// Tier is the automated player's current difficulty.
func (e *Engine) Tier() int {
	return e.autoTurns / e.step
}

// Start begins the game with the player naming an entity of kind.
func (e *Engine) Start(kind Kind) error {
	if e.state != AwaitingStart {
		return fmt.Errorf("start: %w", ErrSessionEnded)
	}

	if kind != KindMovie && kind != KindPerson {
		return fmt.Errorf("start: invalid kind %q", kind)
	}

	e.expecting = kind
	e.state = AwaitingUserTurn

	return nil
}

// End stops the session. Later turns fail with ErrSessionEnded.
func (e *Engine) End() {
	e.state = Ended
}

func (e *Engine) checkTurn(want State) error {
	switch {
	case e.state == want:
		return nil
	case e.state == AwaitingStart:
		return ErrNotStarted
	case e.state == Ended:
		return ErrSessionEnded
	default:
		return ErrOutOfTurn
	}
}

func (e *Engine) onChain(kind Kind, id int) bool {
	for _, c := range e.chain {
		if c.Kind == kind && c.ID == id {
			return true
		}
	}

	return false
}

// excludedIDs lists every id of kind the automated player may not pick:
// its own earlier picks plus anything on the chain.
func (e *Engine) excludedIDs(kind Kind) map[int]bool {
	ids := maps.Clone(e.used.autoIDs(kind))

	for _, c := range e.chain {
		if c.Kind == kind {
			ids[c.ID] = true
		}
	}

	return ids
}

// SubmitUserTurn validates the player's guess and appends it to the chain.
// On any error the session is left exactly as it was.
func (e *Engine) SubmitUserTurn(ctx context.Context, raw string) (Entity, error) {
	if err := e.checkTurn(AwaitingUserTurn); err != nil {
		return Entity{}, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entity{}, ErrEmptyInput
	}

	kind := e.expecting

	entity, err := e.resolver.Resolve(ctx, raw, kind)
	if err != nil {
		return Entity{}, err
	}
	entity.Kind = kind

	name := textmatch.Loose(entity.Name)

	if d := textmatch.Distance(textmatch.Loose(raw), name); d > MaxInputDistance {
		e.logf.printf("TURN: Rejected %q for %q, distance %d", raw, entity.Name, d)

		return Entity{}, fmt.Errorf("%w: %q is %d edits from %q", ErrTooDivergent, raw, d, entity.Name)
	}

	if e.used.userNames(kind)[name] || e.onChain(kind, entity.ID) {
		return Entity{}, fmt.Errorf("%w: %s %q", ErrAlreadyUsed, kind, entity.Name)
	}

	if prev, ok := e.Last(); ok {
		linked, err := Linked(ctx, e.dir, prev, entity)
		if err != nil {
			return Entity{}, err
		}

		if !linked {
			return Entity{}, fmt.Errorf("%w: %q and %q", ErrNotLinked, prev.Name, entity.Name)
		}
	}

	e.chain = append(e.chain, entity)
	e.used.userNames(kind)[name] = true
	e.state = AwaitingAutoTurn

	e.logf.printf("TURN: Player added %s %q (%d), chain length %d", kind, entity.Name, entity.ID, len(e.chain))

	return entity, nil
}

// RecordAutoTurn appends the automated player's entity. An entity already on
// the chain is ignored.
func (e *Engine) RecordAutoTurn(entity Entity) {
	if e.used.autoIDs(entity.Kind)[entity.ID] || e.onChain(entity.Kind, entity.ID) {
		e.logf.printf("TURN: Ignoring repeated automated %s %q (%d)", entity.Kind, entity.Name, entity.ID)

		return
	}

	e.chain = append(e.chain, entity)
	e.used.autoIDs(entity.Kind)[entity.ID] = true
	e.autoTurns++
	e.expecting = entity.Kind.Opposite()

	if e.state != Ended {
		e.state = AwaitingUserTurn
	}

	e.logf.printf("TURN: Automated player added %s %q (%d), tier %d", entity.Kind, entity.Name, entity.ID, e.Tier())
}

// AutoTurn lets the automated player answer the last entity. When it has no
// answer the session ends and ErrNoAutoMove is returned.
func (e *Engine) AutoTurn(ctx context.Context) (Entity, error) {
	if err := e.checkTurn(AwaitingAutoTurn); err != nil {
		return Entity{}, err
	}

	last, _ := e.Last()

	next, ok, err := e.responder.ChooseNext(ctx, last, e.excludedIDs(last.Kind.Opposite()), e.Tier())
	if err != nil {
		return Entity{}, err
	}

	if !ok {
		e.state = Ended
		e.logf.printf("TURN: Automated player has no answer to %q", last.Name)

		return Entity{}, ErrNoAutoMove
	}

	next.Kind = last.Kind.Opposite()
	e.RecordAutoTurn(next)

	return next, nil
}

// Play runs a player turn followed by the automated reply. When the reply
// fails, the returned Turn still carries the accepted player entity.
func (e *Engine) Play(ctx context.Context, raw string) (Turn, error) {
	user, err := e.SubmitUserTurn(ctx, raw)
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{User: user}

	auto, err := e.AutoTurn(ctx)
	if err != nil {
		return turn, err
	}
	turn.Auto = &auto

	return turn, nil
}
