// Package settings holds persisted user preferences in memory and writes
// changes through to the backing store.
package settings

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/logging"
)

const (
	TagDropdownWidth        = "tag-dropdown-width"
	SearchEditDropdownWidth = "search-edit-dropdown-width"
	TouchpadMode            = "touchpad-mode"
	InvertPopupHotkey       = "invert-popup-hotkey"
	SearchFilter            = "search-filter"
)

const (
	DefaultWidth = 40
	MinWidth     = 20
)

// Backend persists settings. *store.Store implements it.
type Backend interface {
	Settings(ctx context.Context) (map[string]string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Store is the settings collaborator.
type Store struct {
	backend Backend

	mu     sync.Mutex
	values map[string]string
	next   int
	subs   map[string]map[int]func(string)
}

// Load reads every stored setting from backend.
func Load(ctx context.Context, backend Backend) (*Store, error) {
	values, err := backend.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return &Store{
		backend: backend,
		values:  values,
		subs:    make(map[string]map[int]func(string)),
	}, nil
}

// Get returns the value of key, or def when unset.
func (s *Store) Get(key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Bool returns key parsed as a boolean, or def when unset or malformed.
func (s *Store) Bool(key string, def bool) bool {
	v, err := strconv.ParseBool(s.Get(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}

// Int returns key parsed as an integer, or def when unset or malformed.
func (s *Store) Int(key string, def int) int {
	v, err := strconv.Atoi(s.Get(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// Set stores value under key and notifies subscribers when it changed.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	old, had := s.values[key]
	if had && old == value {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.backend.SetSetting(context.Background(), key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	s.mu.Lock()
	s.values[key] = value
	fns := s.listenersLocked(key)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(value)
	}
	return nil
}

// SetBool stores a boolean setting.
func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// SetInt stores an integer setting.
func (s *Store) SetInt(key string, value int) error {
	return s.Set(key, strconv.Itoa(value))
}

// Seed stores value only when key has never been set. Command-line flags use
// it so that preferences changed at runtime survive a restart.
func (s *Store) Seed(key, value string) error {
	s.mu.Lock()
	_, had := s.values[key]
	s.mu.Unlock()
	if had {
		return nil
	}
	return s.Set(key, value)
}

// Width returns the persisted width for key, never below MinWidth.
func (s *Store) Width(key string) int {
	return max(s.Int(key, DefaultWidth), MinWidth)
}

// AdjustWidth changes the width stored under key by delta and returns the
// new width.
func (s *Store) AdjustWidth(key string, delta int) int {
	width := max(s.Width(key)+delta, MinWidth)
	if err := s.SetInt(key, width); err != nil {
		logging.Error(err)
	}
	return width
}

// Subscribe calls fn with the new value after every change to key.
func (s *Store) Subscribe(key string, fn func(value string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(string))
	}
	s.subs[key][id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[key], id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) listenersLocked(key string) []func(string) {
	ids := make([]int, 0, len(s.subs[key]))
	for id := range s.subs[key] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(string), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[key][id])
	}
	return fns
}
