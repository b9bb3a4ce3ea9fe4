/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chain

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultSuggestDelay is how long typing must pause before a lookup starts.
const DefaultSuggestDelay = 300 * time.Millisecond

// SuggestFunc looks up suggestions for a partial query.
type SuggestFunc func(ctx context.Context, query string, kind Kind) ([]Entity, error)

type suggestTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Suggester debounces autocomplete lookups per input field. A new request
// for a field cancels the pending one, and never starts its own lookup until
// the previous one has returned, so each field has at most one lookup in
// flight and stale results are never delivered.
type Suggester struct {
	delay time.Duration
	fetch SuggestFunc

	mu     sync.Mutex
	tasks  map[string]*suggestTask
	closed bool
}

func NewSuggester(delay time.Duration, fetch SuggestFunc) *Suggester {
	if delay <= 0 {
		delay = DefaultSuggestDelay
	}

	return &Suggester{
		delay: delay,
		fetch: fetch,
		tasks: make(map[string]*suggestTask),
	}
}

// Suggest schedules a lookup of query for field. deliver is called from
// another goroutine with the results, unless the request is superseded or
// the suggester is closed first. deliver runs with the suggester locked and
// must not call back into it. An empty query delivers no results without
// a lookup.
func (s *Suggester) Suggest(ctx context.Context, field, query string, kind Kind, deliver func([]Entity, error)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return
	}

	prev := s.tasks[field]
	if prev != nil {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &suggestTask{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.tasks[field] = t
	s.mu.Unlock()

	go s.run(ctx, field, t, prev, strings.TrimSpace(query), kind, deliver)
}

func (s *Suggester) run(ctx context.Context, field string, t, prev *suggestTask, query string, kind Kind, deliver func([]Entity, error)) {
	defer close(t.done)
	defer func() {
		s.mu.Lock()
		if s.tasks[field] == t {
			delete(s.tasks, field)
		}
		s.mu.Unlock()

		t.cancel()
	}()

	if prev != nil {
		<-prev.done
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	var (
		results []Entity
		err     error
	)

	if query != "" {
		results, err = s.fetch(ctx, query, kind)
	}

	// A newer request for field cannot replace t while deliver runs.
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || s.closed || s.tasks[field] != t {
		return
	}

	deliver(results, err)
}

// Cancel drops any pending lookup for field.
func (s *Suggester) Cancel(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[field]; ok {
		t.cancel()
	}
}

// Close cancels every pending lookup and rejects new ones.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for field, t := range s.tasks {
		t.cancel()
		delete(s.tasks, field)
	}
}
