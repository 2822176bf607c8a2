package searchbox

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/autocomplete"
	"github.com/atomicstack/tag-popup-control/internal/history"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/settings"
	"github.com/atomicstack/tag-popup-control/internal/store"
)

type prefixClient struct {
	mu    sync.Mutex
	calls []string
	tags  []string
}

func (c *prefixClient) Complete(ctx context.Context, keyword string) ([]autocomplete.Candidate, error) {
	c.mu.Lock()
	c.calls = append(c.calls, keyword)
	c.mu.Unlock()
	var out []autocomplete.Candidate
	for _, tag := range c.tags {
		if strings.HasPrefix(tag, keyword) {
			out = append(out, autocomplete.Candidate{Tag: tag})
		}
	}
	return out, nil
}

func (c *prefixClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type visit struct {
	url     string
	history bool
}

type recordingNavigator struct {
	mu     sync.Mutex
	visits []visit
}

func (n *recordingNavigator) BuildSearchURL(expr string) string {
	return "search:" + expr
}

func (n *recordingNavigator) Navigate(ctx context.Context, url string, addToHistory bool) error {
	n.mu.Lock()
	n.visits = append(n.visits, visit{url, addToHistory})
	n.mu.Unlock()
	return nil
}

type fixture struct {
	box      *Box
	history  *history.Store
	settings *settings.Store
	client   *prefixClient
	nav      *recordingNavigator
	view     *overlay.ViewHidden
}

func newFixture(t *testing.T, recent ...string) *fixture {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { logging.Configure("") })

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	h := history.New(st)
	ctx := context.Background()
	for _, r := range recent {
		if err := h.Add(ctx, history.SearchTags, r); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
	s, err := settings.Load(ctx, st)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	f := &fixture{
		history:  h,
		settings: s,
		client:   &prefixClient{tags: []string{"cat", "caterpillar", "dog"}},
		nav:      &recordingNavigator{},
		view:     overlay.NewViewHidden(),
	}
	f.box = New(Config{
		History:      h,
		Locale:       "en",
		Autocomplete: f.client,
		Settings:     s,
		Navigator:    f.nav,
		ViewHidden:   f.view,
	})
	t.Cleanup(f.box.Close)
	return f
}

func keys(c *overlay.Controller) []string {
	var out []string
	for _, e := range c.Entries() {
		out = append(out, e.Key)
	}
	return out
}

func TestFocusShowsRecentSearches(t *testing.T) {
	f := newFixture(t, "dog", "cat -bird")
	if !f.box.Focus() {
		t.Fatalf("expected dropdown visible")
	}
	if want := []string{"cat -bird", "dog"}; !reflect.DeepEqual(keys(f.box.Dropdown()), want) {
		t.Fatalf("entries = %v, want %v", keys(f.box.Dropdown()), want)
	}
	if f.box.Active() != f.box.Dropdown() {
		t.Fatalf("expected history dropdown active")
	}
}

func TestTypingMergesAutocompleteAheadOfHistory(t *testing.T) {
	f := newFixture(t, "dog", "cat -bird")
	f.box.Focus()
	f.box.Type("ca")
	f.box.Coalescer().Wait()

	want := []string{"cat", "caterpillar", "cat -bird", "dog"}
	if got := keys(f.box.Dropdown()); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	if got := f.box.Dropdown().Entries()[0].Source; got != overlay.SourceAutocomplete {
		t.Fatalf("first entry source = %v", got)
	}
}

func TestSelectionDoesNotRequestButTypingDoes(t *testing.T) {
	f := newFixture(t, "dog", "cat -bird")
	f.box.Focus()
	if !f.box.Move(overlay.Next) {
		t.Fatalf("expected move")
	}
	if f.box.Input().Text() != "cat -bird" {
		t.Fatalf("input = %q", f.box.Input().Text())
	}
	if calls := f.client.Calls(); len(calls) != 0 {
		t.Fatalf("selection issued requests %v", calls)
	}

	f.box.Type("cat -bird x")
	f.box.Coalescer().Wait()
	if calls := f.client.Calls(); !reflect.DeepEqual(calls, []string{"cat -bird x"}) {
		t.Fatalf("calls = %v", calls)
	}
	if _, ok := f.box.Dropdown().Selection().Index(); ok {
		t.Fatalf("typing kept the highlight")
	}
}

func TestEditDropdownTogglesWithoutHistory(t *testing.T) {
	f := newFixture(t, "cat", "dog")
	ctx := context.Background()
	f.box.Focus()
	f.box.Input().SetText("cat", overlay.OriginSelection)

	if !f.box.ToggleEdit() {
		t.Fatalf("expected edit dropdown visible")
	}
	if f.box.Dropdown().Open() {
		t.Fatalf("history dropdown still open")
	}
	if !f.history.Suppressed(history.SearchTags) {
		t.Fatalf("expected history adds suppressed")
	}
	if want := []string{"cat", "dog"}; !reflect.DeepEqual(keys(f.box.Edit()), want) {
		t.Fatalf("edit entries = %v, want %v", keys(f.box.Edit()), want)
	}
	if !f.box.Highlighted("cat") || f.box.Highlighted("dog") {
		t.Fatalf("unexpected highlight")
	}

	if err := f.box.ToggleTag(ctx, "dog"); err != nil {
		t.Fatalf("ToggleTag: %v", err)
	}
	if f.box.Input().Text() != "cat dog" {
		t.Fatalf("input = %q", f.box.Input().Text())
	}
	if err := f.box.ToggleTag(ctx, "cat"); err != nil {
		t.Fatalf("ToggleTag: %v", err)
	}
	want := []visit{{"search:cat dog", false}, {"search:dog", false}}
	if !reflect.DeepEqual(f.nav.visits, want) {
		t.Fatalf("visits = %v, want %v", f.nav.visits, want)
	}
	recent, _ := f.history.Recent(ctx, history.SearchTags)
	if !reflect.DeepEqual(recent, []string{"dog", "cat"}) {
		t.Fatalf("edit navigation reached history: %v", recent)
	}
	if calls := f.client.Calls(); len(calls) != 0 {
		t.Fatalf("toggling issued requests %v", calls)
	}

	if f.box.ToggleEdit() {
		t.Fatalf("expected edit dropdown closed")
	}
	if f.history.Suppressed(history.SearchTags) {
		t.Fatalf("suppression outlived the edit dropdown")
	}
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, "dog")
	ctx := context.Background()
	f.box.Focus()

	f.box.Input().SetText("   ", overlay.OriginUser)
	if err := f.box.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(f.nav.visits) != 0 || !f.box.Dropdown().Open() {
		t.Fatalf("empty submit had an effect")
	}

	f.box.Input().SetText("cat  -bird", overlay.OriginSelection)
	if err := f.box.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.box.Active() != nil {
		t.Fatalf("expected every dropdown hidden")
	}
	if want := []visit{{"search:cat  -bird", true}}; !reflect.DeepEqual(f.nav.visits, want) {
		t.Fatalf("visits = %v", f.nav.visits)
	}
	recent, _ := f.history.Recent(ctx, history.SearchTags)
	if len(recent) == 0 || recent[0] != "cat  -bird" {
		t.Fatalf("recent = %v", recent)
	}
}

func TestSubmitFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.box.Input().SetText("f:", overlay.OriginSelection)
	f.box.Submit(ctx)
	if got := f.settings.Get(settings.SearchFilter, ""); got != "true" {
		t.Fatalf("filter = %q", got)
	}
	f.box.Input().SetText("f: safe", overlay.OriginSelection)
	f.box.Submit(ctx)
	if got := f.settings.Get(settings.SearchFilter, ""); got != "safe" {
		t.Fatalf("filter = %q", got)
	}
	if len(f.nav.visits) != 0 {
		t.Fatalf("filter submit navigated")
	}
}

func TestRemoveSelectedHistoryEntry(t *testing.T) {
	f := newFixture(t, "dog", "cat")
	ctx := context.Background()
	f.box.Focus()
	f.box.Move(overlay.Next)
	if err := f.box.RemoveSelected(ctx); err != nil {
		t.Fatalf("RemoveSelected: %v", err)
	}
	if want := []string{"dog"}; !reflect.DeepEqual(keys(f.box.Dropdown()), want) {
		t.Fatalf("entries = %v, want %v", keys(f.box.Dropdown()), want)
	}
}

func TestWidthFollowsOpenDropdown(t *testing.T) {
	f := newFixture(t, "cat")
	f.box.Focus()
	if got := f.box.AdjustWidth(5); got != settings.DefaultWidth+5 {
		t.Fatalf("width = %d", got)
	}
	f.box.ToggleEdit()
	if got := f.box.Width(); got != settings.DefaultWidth {
		t.Fatalf("edit width = %d", got)
	}
	if got := f.box.AdjustWidth(-100); got != settings.MinWidth {
		t.Fatalf("edit width = %d", got)
	}
	if got := f.settings.Width(settings.TagDropdownWidth); got != settings.DefaultWidth+5 {
		t.Fatalf("history width = %d", got)
	}
}

func TestViewHiddenClosesDropdowns(t *testing.T) {
	f := newFixture(t, "cat")
	f.box.ToggleEdit()
	f.view.Send()
	if f.box.Active() != nil {
		t.Fatalf("expected dropdowns hidden")
	}
	if f.history.Suppressed(history.SearchTags) {
		t.Fatalf("suppression outlived the view")
	}
}

func TestNotifyDefersRefresh(t *testing.T) {
	logging.Configure(filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { logging.Configure("") })
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	h := history.New(st)

	var got []Event
	box := New(Config{History: h, Notify: func(e Event) { got = append(got, e) }})
	defer box.Close()
	box.Focus()
	h.Add(context.Background(), history.SearchTags, "cat")

	if !reflect.DeepEqual(got, []Event{HistoryChanged}) {
		t.Fatalf("events = %v", got)
	}
	if len(box.Dropdown().Entries()) != 0 {
		t.Fatalf("refresh ran before the host asked")
	}
	box.Refresh(HistoryChanged)
	if want := []string{"cat"}; !reflect.DeepEqual(keys(box.Dropdown()), want) {
		t.Fatalf("entries = %v", keys(box.Dropdown()))
	}
}
