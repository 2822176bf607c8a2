package ui

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/backend"
	"github.com/atomicstack/tag-popup-control/internal/bookmark"
	"github.com/atomicstack/tag-popup-control/internal/history"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/navigate"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
	"github.com/atomicstack/tag-popup-control/internal/settings"
	"github.com/atomicstack/tag-popup-control/internal/state"
	"github.com/atomicstack/tag-popup-control/internal/store"
)

type memoryBookmarks struct {
	mu    sync.Mutex
	tags  map[string][]string
	saves int
}

func (b *memoryBookmarks) Tags(ctx context.Context, id string) ([]string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tags, ok := b.tags[id]
	return append([]string(nil), tags...), ok, nil
}

func (b *memoryBookmarks) SetTags(ctx context.Context, id string, tags []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves++
	b.tags[id] = append([]string(nil), tags...)
	return nil
}

func (b *memoryBookmarks) get(id string) ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.tags[id]...), b.saves
}

type fixture struct {
	h         *Harness
	history   *history.Store
	settings  *settings.Store
	bookmarks *memoryBookmarks
	nav       *navigate.Navigator
	targets   state.TargetStore
}

func newFixture(t *testing.T, recent ...string) *fixture {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { logging.Configure("") })

	ctx := context.Background()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	h := history.New(st)
	for _, r := range recent {
		if err := h.Add(ctx, history.SearchTags, r); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
	if err := h.Add(ctx, history.BookmarkTags, "dog"); err != nil {
		t.Fatalf("seed bookmark tags: %v", err)
	}
	s, err := settings.Load(ctx, st)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	nav, err := navigate.New("https://example.test", "")
	if err != nil {
		t.Fatalf("navigator: %v", err)
	}

	bridge := backend.NewBridge(0)
	t.Cleanup(bridge.Stop)
	view := overlay.NewViewHidden()
	box := searchbox.New(searchbox.Config{
		Context:    ctx,
		History:    h,
		Locale:     "en",
		Settings:   s,
		Navigator:  nav,
		ViewHidden: view,
		Notify: func(evt searchbox.Event) {
			kind := backend.KindAutocomplete
			if evt == searchbox.HistoryChanged {
				kind = backend.KindSearchHistory
			}
			bridge.Notify(backend.Event{Kind: kind})
		},
	})
	t.Cleanup(box.Close)
	t.Cleanup(h.Subscribe(history.BookmarkTags, bridge.NotifyFunc(backend.KindBookmarkHistory)))
	t.Cleanup(s.Subscribe(settings.TouchpadMode, func(string) {
		bridge.Notify(backend.Event{Kind: backend.KindSettings, Key: settings.TouchpadMode})
	}))

	bm := &memoryBookmarks{tags: map[string][]string{"42": {"cat"}}}
	editor := bookmark.NewEditor(bm, h, nil, "en")
	targets := state.NewTargetStore()

	model := NewModel(Deps{
		Context:    ctx,
		Box:        box,
		Editor:     editor,
		Settings:   s,
		Bridge:     bridge,
		Targets:    targets,
		URLs:       nav,
		ViewHidden: view,
	})
	t.Cleanup(model.Close)
	harness := NewHarness(model)
	harness.Init()
	return &fixture{h: harness, history: h, settings: s, bookmarks: bm, nav: nav, targets: targets}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) target() state.Target {
	target := state.Target{ID: "42", Title: "Work 42", Tags: []string{"cat", "dog"}}
	f.targets.SetCurrent(target)
	return target
}

func TestInitShowsRecentSearches(t *testing.T) {
	f := newFixture(t, "cat dog", "bird")
	view := f.h.View()
	for _, want := range []string{"cat dog", "bird"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if f.h.Model().box.Active() != f.h.Model().box.Dropdown() {
		t.Fatalf("expected history dropdown to be active")
	}
}

func TestTypingAndSubmitNavigates(t *testing.T) {
	f := newFixture(t)
	f.h.Send(runes("fox"))
	if got := f.h.Model().box.Input().Text(); got != "fox" {
		t.Fatalf("expected box input fox, got %q", got)
	}
	f.h.Send(key(tea.KeyEnter))
	if got, want := f.nav.Current(), "https://example.test/tags/fox/artworks"; got != want {
		t.Fatalf("expected navigation to %s, got %s", want, got)
	}
	recent, err := f.history.Recent(context.Background(), history.SearchTags)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) == 0 || recent[0] != "fox" {
		t.Fatalf("expected fox recorded first, got %v", recent)
	}
	if f.h.Model().box.Active() != nil {
		t.Fatalf("expected dropdowns closed after submit")
	}
}

func TestMoveSelectsRecentIntoInput(t *testing.T) {
	f := newFixture(t, "cat dog")
	f.h.Send(key(tea.KeyDown))
	if got := f.h.Model().input.Value(); got != "cat dog" {
		t.Fatalf("expected selection copied into input, got %q", got)
	}
}

func TestToggleEditDropdown(t *testing.T) {
	f := newFixture(t, "cat dog")
	f.h.Send(key(tea.KeyCtrlE))
	m := f.h.Model()
	if !m.box.Edit().Open() {
		t.Fatalf("expected edit dropdown open")
	}
	view := f.h.View()
	if !strings.Contains(view, "cat") || !strings.Contains(view, "dog") {
		t.Fatalf("expected edit tags in view:\n%s", view)
	}
	f.h.Send(key(tea.KeyCtrlE))
	if m.box.Edit().Open() {
		t.Fatalf("expected edit dropdown closed")
	}
}

func TestAdjustWidthPersists(t *testing.T) {
	f := newFixture(t, "cat")
	f.h.Send(tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	if got := f.settings.Width(settings.TagDropdownWidth); got != settings.DefaultWidth+widthStep {
		t.Fatalf("expected width %d, got %d", settings.DefaultWidth+widthStep, got)
	}
}

func TestEscClosesDropdownThenQuits(t *testing.T) {
	f := newFixture(t, "cat")
	f.h.Send(key(tea.KeyEsc))
	if f.h.Quit() {
		t.Fatalf("first esc should only close the dropdown")
	}
	if f.h.Model().box.Active() != nil {
		t.Fatalf("expected dropdown closed")
	}
	f.h.Send(key(tea.KeyEsc))
	if !f.h.Quit() {
		t.Fatalf("expected quit on second esc")
	}
}

func TestBookmarkEditorWithoutTarget(t *testing.T) {
	f := newFixture(t)
	f.h.Send(key(tea.KeyCtrlB))
	if f.h.Model().focus != FocusSearch {
		t.Fatalf("expected focus to stay on search")
	}
	if view := f.h.View(); !strings.Contains(view, "no work to bookmark") {
		t.Fatalf("expected error in view:\n%s", view)
	}
}

func TestBookmarkEditorSavesToggles(t *testing.T) {
	f := newFixture(t)
	f.target()
	f.h.Send(key(tea.KeyCtrlB))
	m := f.h.Model()
	if m.focus != FocusEditor {
		t.Fatalf("expected editor focus, got %v", m.focus)
	}
	view := f.h.View()
	if !strings.Contains(view, "Work 42") || !strings.Contains(view, "[✓] ") {
		t.Fatalf("expected editor rows in view:\n%s", view)
	}
	f.h.Send(runes("dog"))
	if got := len(m.editorLevel.Items); got != 1 {
		t.Fatalf("expected filter to leave one tag, got %d", got)
	}
	f.h.Send(key(tea.KeySpace))
	f.h.Send(key(tea.KeyEsc))
	tags, saves := f.bookmarks.get("42")
	if saves != 1 || !reflect.DeepEqual(tags, []string{"cat", "dog"}) {
		t.Fatalf("expected [cat dog] saved once, got %v after %d saves", tags, saves)
	}
	if m.focus != FocusSearch || m.editorLevel != nil {
		t.Fatalf("expected editor closed")
	}
}

func TestBookmarkEditorDiscard(t *testing.T) {
	f := newFixture(t)
	f.target()
	f.h.Send(key(tea.KeyCtrlB))
	f.h.Send(runes("cat"))
	f.h.Send(key(tea.KeySpace))
	if f.h.Model().editor.Active("cat") {
		t.Fatalf("expected cat switched off")
	}
	f.h.Send(key(tea.KeyCtrlX))
	if _, saves := f.bookmarks.get("42"); saves != 0 {
		t.Fatalf("expected no save on discard, got %d", saves)
	}
}

func TestTagPromptAddsTag(t *testing.T) {
	f := newFixture(t)
	f.target()
	f.h.Send(key(tea.KeyCtrlN))
	m := f.h.Model()
	if m.focus != FocusPrompt {
		t.Fatalf("expected prompt focus, got %v", m.focus)
	}
	f.h.Send(runes("bird"))
	f.h.Send(key(tea.KeyEnter))
	if m.focus != FocusEditor {
		t.Fatalf("expected editor focus after prompt, got %v", m.focus)
	}
	if m.editorLevel.IndexOf("bird") < 0 {
		t.Fatalf("expected bird listed, got %v", m.editorLevel.Items)
	}
	f.h.Settle(100 * time.Millisecond)
	f.h.Send(key(tea.KeyEsc))
	tags, _ := f.bookmarks.get("42")
	if !reflect.DeepEqual(tags, []string{"bird", "cat"}) {
		t.Fatalf("expected [bird cat] saved, got %v", tags)
	}
}

func TestPromptEscReturnsToEditor(t *testing.T) {
	f := newFixture(t)
	f.target()
	f.h.Send(key(tea.KeyCtrlN))
	f.h.Send(runes("bird"))
	f.h.Send(key(tea.KeyEsc))
	m := f.h.Model()
	if m.focus != FocusEditor {
		t.Fatalf("expected editor focus, got %v", m.focus)
	}
	if m.editor.Active("bird") {
		t.Fatalf("cancelled prompt must not add a tag")
	}
}

func TestQuitSavesOpenEditor(t *testing.T) {
	f := newFixture(t)
	f.target()
	f.h.Send(key(tea.KeyCtrlB))
	f.h.Send(runes("dog"))
	f.h.Send(key(tea.KeySpace))
	f.h.Send(key(tea.KeyCtrlC))
	if !f.h.Quit() {
		t.Fatalf("expected quit")
	}
	if tags, _ := f.bookmarks.get("42"); !reflect.DeepEqual(tags, []string{"cat", "dog"}) {
		t.Fatalf("expected toggles saved on quit, got %v", tags)
	}
}
