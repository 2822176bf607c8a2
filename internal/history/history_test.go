package history

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { logging.Configure("") })
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestAddMovesToFrontAndNotifies(t *testing.T) {
	h := newTestStore(t)
	ctx := context.Background()
	changes := 0
	unsubscribe := h.Subscribe(SearchTags, func() { changes++ })
	other := 0
	h.Subscribe(BookmarkTags, func() { other++ })

	for _, v := range []string{"cat", "dog", " cat ", ""} {
		if err := h.Add(ctx, SearchTags, v); err != nil {
			t.Fatalf("Add(%q): %v", v, err)
		}
	}
	got, err := h.Recent(ctx, SearchTags)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if want := []string{"cat", "dog"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Recent = %v, want %v", got, want)
	}
	if changes != 3 || other != 0 {
		t.Fatalf("expected 3 search notifications and none for bookmarks, got %d/%d", changes, other)
	}

	unsubscribe()
	h.Add(ctx, SearchTags, "bird")
	if changes != 3 {
		t.Fatalf("unsubscribed listener still called")
	}
}

func TestSuppressAdd(t *testing.T) {
	h := newTestStore(t)
	ctx := context.Background()

	h.SuppressAdd(SearchTags, true)
	h.SuppressAdd(SearchTags, true)
	h.Add(ctx, SearchTags, "cat")
	h.SuppressAdd(SearchTags, false)
	if !h.Suppressed(SearchTags) {
		t.Fatalf("expected nested suppression to hold")
	}
	h.Add(ctx, BookmarkTags, "dog")
	h.SuppressAdd(SearchTags, false)
	h.SuppressAdd(SearchTags, false)
	h.Add(ctx, SearchTags, "bird")

	got, _ := h.Recent(ctx, SearchTags)
	if want := []string{"bird"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Recent = %v, want %v", got, want)
	}
	if got, _ := h.Recent(ctx, BookmarkTags); len(got) != 1 {
		t.Fatalf("suppression leaked into other kinds: %v", got)
	}
}

func TestRemoveNotifiesOnlyOnChange(t *testing.T) {
	h := newTestStore(t)
	ctx := context.Background()
	h.Add(ctx, SearchTags, "cat")
	changes := 0
	h.Subscribe(SearchTags, func() { changes++ })

	if err := h.Remove(ctx, SearchTags, "cat"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	h.Remove(ctx, SearchTags, "cat")
	if changes != 1 {
		t.Fatalf("expected one notification, got %d", changes)
	}
}

func TestLimit(t *testing.T) {
	h := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < Limit+5; i++ {
		h.Add(ctx, SearchTags, string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	got, _ := h.Recent(ctx, SearchTags)
	if len(got) != Limit {
		t.Fatalf("expected %d entries, got %d", Limit, len(got))
	}
}
