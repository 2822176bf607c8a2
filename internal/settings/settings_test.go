package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/store"
)

func loadTest(t *testing.T) (*Store, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	s, err := Load(context.Background(), st)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, st
}

func TestDefaultsAndParsing(t *testing.T) {
	s, _ := loadTest(t)
	if got := s.Get("missing", "fallback"); got != "fallback" {
		t.Fatalf("Get default = %q", got)
	}
	if s.Bool(TouchpadMode, false) {
		t.Fatalf("expected default false")
	}
	s.Set(TouchpadMode, "not-a-bool")
	if !s.Bool(TouchpadMode, true) {
		t.Fatalf("malformed bool should fall back to default")
	}
	s.SetBool(TouchpadMode, true)
	if !s.Bool(TouchpadMode, false) {
		t.Fatalf("expected stored true")
	}
	s.SetInt("n", 7)
	if s.Int("n", 0) != 7 {
		t.Fatalf("expected stored int")
	}
}

func TestSetPersistsAndNotifies(t *testing.T) {
	s, st := loadTest(t)
	var seen []string
	unsubscribe := s.Subscribe(SearchFilter, func(v string) { seen = append(seen, v) })

	s.Set(SearchFilter, "true")
	s.Set(SearchFilter, "true")
	s.Set(SearchFilter, "bookmarks")
	unsubscribe()
	s.Set(SearchFilter, "none")

	if len(seen) != 2 || seen[0] != "true" || seen[1] != "bookmarks" {
		t.Fatalf("unexpected notifications %v", seen)
	}
	reloaded, err := Load(context.Background(), st)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Get(SearchFilter, ""); got != "none" {
		t.Fatalf("expected persisted value, got %q", got)
	}
}

func TestSeedKeepsExistingValue(t *testing.T) {
	s, _ := loadTest(t)
	s.Seed(InvertPopupHotkey, "true")
	s.Seed(InvertPopupHotkey, "false")
	if !s.Bool(InvertPopupHotkey, false) {
		t.Fatalf("seed overwrote existing value")
	}
}

func TestWidthClamps(t *testing.T) {
	s, _ := loadTest(t)
	if w := s.Width(TagDropdownWidth); w != DefaultWidth {
		t.Fatalf("default width = %d", w)
	}
	if w := s.AdjustWidth(TagDropdownWidth, 5); w != DefaultWidth+5 {
		t.Fatalf("adjusted width = %d", w)
	}
	if w := s.AdjustWidth(TagDropdownWidth, -100); w != MinWidth {
		t.Fatalf("expected clamp to %d, got %d", MinWidth, w)
	}
	s.SetInt(SearchEditDropdownWidth, 3)
	if w := s.Width(SearchEditDropdownWidth); w != MinWidth {
		t.Fatalf("stored width below minimum not clamped: %d", w)
	}
}

type failingBackend struct{}

func (failingBackend) Settings(context.Context) (map[string]string, error) { return nil, nil }
func (failingBackend) SetSetting(context.Context, string, string) error {
	return errors.New("read-only")
}

func TestSetFailureLeavesValue(t *testing.T) {
	s, err := Load(context.Background(), failingBackend{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Set("k", "v"); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.Get("k", "def"); got != "def" {
		t.Fatalf("failed set changed value to %q", got)
	}
}
