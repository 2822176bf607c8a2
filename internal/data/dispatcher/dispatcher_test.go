package dispatcher

import (
	"context"
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/backend"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
)

type fakeBox struct {
	events []searchbox.Event
}

func (f *fakeBox) BeginRefresh(event searchbox.Event) []func() overlay.Result {
	f.events = append(f.events, event)
	return []func() overlay.Result{func() overlay.Result { return overlay.Published }}
}

type fakeEditor struct {
	open  bool
	calls int
}

func (f *fakeEditor) BeginRefresh(ctx context.Context) func() overlay.Result {
	f.calls++
	if !f.open {
		return nil
	}
	return func() overlay.Result { return overlay.Published }
}

func TestHandleRoutesEvents(t *testing.T) {
	box := &fakeBox{}
	editor := &fakeEditor{}
	d := New(context.Background(), box, editor)

	if res := d.Handle(backend.Event{Kind: backend.KindAutocomplete}); len(res.Refreshes) != 1 {
		t.Fatalf("expected dropdown refresh")
	}
	d.Handle(backend.Event{Kind: backend.KindSearchHistory})
	if len(box.events) != 2 || box.events[0] != searchbox.AutocompleteUpdated || box.events[1] != searchbox.HistoryChanged {
		t.Fatalf("box events = %v", box.events)
	}

	if res := d.Handle(backend.Event{Kind: backend.KindBookmarkHistory}); len(res.Refreshes) != 0 {
		t.Fatalf("hidden editor produced a refresh")
	}
	editor.open = true
	if res := d.Handle(backend.Event{Kind: backend.KindBookmarkHistory}); len(res.Refreshes) != 1 {
		t.Fatalf("expected editor refresh")
	}

	res := d.Handle(backend.Event{Kind: backend.KindSettings, Key: "touchpad-mode"})
	if !res.SettingsChanged || res.Setting != "touchpad-mode" || len(res.Refreshes) != 0 {
		t.Fatalf("unexpected settings result %+v", res)
	}
}
