// Package history keeps the recent-search and recent-bookmark-tag lists and
// tells subscribers when they change.
package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/logging"
)

const (
	SearchTags   = "recent-search-tags"
	BookmarkTags = "recent-bookmark-tags"
)

// Limit is how many values each list keeps.
const Limit = 50

// Backend persists the lists. *store.Store implements it.
type Backend interface {
	Recent(ctx context.Context, kind string, limit int) ([]string, error)
	PushRecent(ctx context.Context, kind, value string, limit int) error
	RemoveRecent(ctx context.Context, kind, value string) (bool, error)
}

// Store is the history collaborator handed to overlays.
type Store struct {
	backend Backend

	mu         sync.Mutex
	next       int
	subs       map[string]map[int]func()
	suppressed map[string]int
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{
		backend:    backend,
		subs:       make(map[string]map[int]func()),
		suppressed: make(map[string]int),
	}
}

// Recent returns the list for kind, most recent first.
func (s *Store) Recent(ctx context.Context, kind string) ([]string, error) {
	return s.backend.Recent(ctx, kind, Limit)
}

// Add moves value to the front of kind. While adding is suppressed for kind
// the call does nothing.
func (s *Store) Add(ctx context.Context, kind, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	s.mu.Lock()
	suppressed := s.suppressed[kind] > 0
	s.mu.Unlock()
	if suppressed {
		logging.Info("history add suppressed", "kind", kind, "value", value)
		return nil
	}
	if err := s.backend.PushRecent(ctx, kind, value, Limit); err != nil {
		return fmt.Errorf("add %s: %w", kind, err)
	}
	s.notify(kind)
	return nil
}

// Remove deletes value from kind.
func (s *Store) Remove(ctx context.Context, kind, value string) error {
	removed, err := s.backend.RemoveRecent(ctx, kind, value)
	if err != nil {
		return fmt.Errorf("remove %s: %w", kind, err)
	}
	if removed {
		s.notify(kind)
	}
	return nil
}

// SuppressAdd turns add suppression for kind on or off. Calls nest: each
// true must be matched by a false.
func (s *Store) SuppressAdd(kind string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.suppressed[kind]++
		return
	}
	if s.suppressed[kind] > 0 {
		s.suppressed[kind]--
	}
}

// Suppressed reports whether adding to kind is currently suppressed.
func (s *Store) Suppressed(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed[kind] > 0
}

// Subscribe calls fn after every change to kind and returns the call that
// stops it.
func (s *Store) Subscribe(kind string, fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	if s.subs[kind] == nil {
		s.subs[kind] = make(map[int]func())
	}
	s.subs[kind][id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[kind], id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(kind string) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs[kind]))
	for id := range s.subs[kind] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[kind][id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
