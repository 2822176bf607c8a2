// Package translate looks up display labels for tags. Labels come from an
// in-memory cache, then the SQLite dictionary, then an optional remote
// fetcher whose answers are written back to the dictionary.
package translate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atomicstack/tag-popup-control/internal/logging"
)

// Dictionary is the persistent cache. *store.Store implements it.
type Dictionary interface {
	Translations(ctx context.Context, locale string, tags []string) (map[string]string, error)
	PutTranslations(ctx context.Context, locale string, labels map[string]string) error
}

// Fetcher asks a remote service for labels.
type Fetcher interface {
	Fetch(ctx context.Context, tags []string, locale string) (map[string]string, error)
}

// loadTimeout bounds one shared lookup; it runs detached from any single
// caller so that a cancelled caller does not fail the others.
const loadTimeout = 15 * time.Second

// Service is the translation collaborator handed to overlays.
type Service struct {
	dict    Dictionary
	fetcher Fetcher
	group   singleflight.Group

	mu      sync.Mutex
	labels  map[string]map[string]string
	missing map[string]map[string]struct{}
}

// New creates a Service. Either collaborator may be nil.
func New(dict Dictionary, fetcher Fetcher) *Service {
	return &Service{
		dict:    dict,
		fetcher: fetcher,
		labels:  make(map[string]map[string]string),
		missing: make(map[string]map[string]struct{}),
	}
}

// Translations returns labels for the keys that have one. Lookup failures
// are logged and leave the affected keys out. Concurrent calls for the same
// missing keys share one lookup.
func (s *Service) Translations(ctx context.Context, keys []string, locale string) (map[string]string, error) {
	out, need := s.fromMemory(keys, locale)
	if len(need) == 0 {
		return out, nil
	}

	flightKey := locale + "\x00" + strings.Join(need, "\x00")
	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.load(loadCtx, need, locale), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		for k, v := range res.Val.(map[string]string) {
			out[k] = v
		}
		return out, nil
	}
}

// Put records labels learned elsewhere, for example from autocomplete
// candidates that carry their own translation.
func (s *Service) Put(ctx context.Context, locale string, labels map[string]string) error {
	if len(labels) == 0 {
		return nil
	}
	s.remember(locale, labels, nil)
	if s.dict == nil {
		return nil
	}
	if err := s.dict.PutTranslations(ctx, locale, labels); err != nil {
		return fmt.Errorf("store translations: %w", err)
	}
	return nil
}

func (s *Service) fromMemory(keys []string, locale string) (map[string]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(keys))
	var need []string
	known := s.labels[locale]
	missing := s.missing[locale]
	for _, k := range keys {
		if v, ok := known[k]; ok {
			out[k] = v
			continue
		}
		if _, ok := missing[k]; ok {
			continue
		}
		need = append(need, k)
	}
	slices.Sort(need)
	return out, slices.Compact(need)
}

func (s *Service) load(ctx context.Context, keys []string, locale string) map[string]string {
	found := make(map[string]string, len(keys))
	if s.dict != nil {
		cached, err := s.dict.Translations(ctx, locale, keys)
		if err != nil {
			logging.Error(fmt.Errorf("translation dictionary: %w", err))
		}
		for k, v := range cached {
			found[k] = v
		}
	}

	var remaining []string
	for _, k := range keys {
		if _, ok := found[k]; !ok {
			remaining = append(remaining, k)
		}
	}
	if len(remaining) == 0 || s.fetcher == nil {
		s.remember(locale, found, remaining)
		return found
	}

	fetched, err := s.fetcher.Fetch(ctx, remaining, locale)
	if err != nil {
		// nothing is marked missing so a later lookup can retry
		logging.Error(fmt.Errorf("fetch translations: %w", err))
		s.remember(locale, found, nil)
		return found
	}
	fresh := make(map[string]string, len(fetched))
	var unknown []string
	for _, k := range remaining {
		if v, ok := fetched[k]; ok && v != "" {
			fresh[k] = v
			found[k] = v
		} else {
			unknown = append(unknown, k)
		}
	}
	if s.dict != nil && len(fresh) > 0 {
		if err := s.dict.PutTranslations(ctx, locale, fresh); err != nil {
			logging.Error(fmt.Errorf("store translations: %w", err))
		}
	}
	s.remember(locale, found, unknown)
	return found
}

func (s *Service) remember(locale string, labels map[string]string, unknown []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels[locale] == nil {
		s.labels[locale] = make(map[string]string)
	}
	for k, v := range labels {
		s.labels[locale][k] = v
		delete(s.missing[locale], k)
	}
	if len(unknown) == 0 {
		return
	}
	if s.missing[locale] == nil {
		s.missing[locale] = make(map[string]struct{})
	}
	for _, k := range unknown {
		s.missing[locale][k] = struct{}{}
	}
}
