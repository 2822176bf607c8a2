// Package searchbox wires the tag search input to its two dropdowns: the
// history dropdown, which merges live autocomplete results ahead of recent
// searches, and the edit dropdown, which toggles individual tags of the
// current expression.
package searchbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/autocomplete"
	"github.com/atomicstack/tag-popup-control/internal/history"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/search"
	"github.com/atomicstack/tag-popup-control/internal/settings"
)

const (
	DropdownName = "search-history"
	EditName     = "search-edit"
)

// FilterPrefix marks input that sets the search filter instead of searching.
const FilterPrefix = "f:"

// Event tells the host which collaborator changed.
type Event int

const (
	// AutocompleteUpdated means new autocomplete results are stored.
	AutocompleteUpdated Event = iota
	// HistoryChanged means the recent-search list changed.
	HistoryChanged
)

func (e Event) String() string {
	if e == HistoryChanged {
		return "history"
	}
	return "autocomplete"
}

// History is the recent-list collaborator.
type History interface {
	overlay.HistorySource
	Add(ctx context.Context, kind, value string) error
	Remove(ctx context.Context, kind, value string) error
	Subscribe(kind string, fn func()) (unsubscribe func())
	SuppressAdd(kind string, on bool)
}

// Navigator opens searches.
type Navigator interface {
	BuildSearchURL(expr string) string
	Navigate(ctx context.Context, url string, addToHistory bool) error
}

// Settings is the preference collaborator.
type Settings interface {
	Set(key, value string) error
	Width(key string) int
	AdjustWidth(key string, delta int) int
}

// Config collects the box's collaborators.
type Config struct {
	Context      context.Context
	History      History
	Translator   overlay.Translator
	Locale       string
	Autocomplete autocomplete.Client
	Settings     Settings
	Navigator    Navigator
	ViewHidden   *overlay.ViewHidden

	// Notify receives collaborator changes, possibly from another
	// goroutine. Hosts with an event loop forward them and call
	// BeginRefresh on the loop. When nil the box refreshes itself.
	Notify func(Event)
	// OnChange runs after any overlay changed state or entries.
	OnChange func()
}

// Box is the search input and its dropdowns.
type Box struct {
	cfg       Config
	ctx       context.Context
	input     *overlay.Input
	dropdown  *overlay.Controller
	edit      *overlay.Controller
	group     *overlay.Group
	nav       *overlay.Navigator
	coalescer *autocomplete.Coalescer

	mu     sync.Mutex
	unsubs []func()
}

// New builds a Box from cfg.
func New(cfg Config) *Box {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	b := &Box{cfg: cfg, ctx: ctx, input: overlay.NewInput()}

	if cfg.Autocomplete != nil {
		b.coalescer = autocomplete.NewCoalescer(ctx, cfg.Autocomplete, b.input.Text, func() {
			b.emit(AutocompleteUpdated)
		})
	}

	var changeOpts []overlay.Option
	if cfg.OnChange != nil {
		changeOpts = append(changeOpts, overlay.WithOnChange(cfg.OnChange))
	}

	b.dropdown = overlay.New(DropdownName, overlay.DropdownBuilder{
		Name:         DropdownName,
		History:      cfg.History,
		Kind:         history.SearchTags,
		Translator:   cfg.Translator,
		Locale:       cfg.Locale,
		Autocomplete: b.autocompleteResults,
	}, changeOpts...)

	editOpts := append([]overlay.Option(nil), changeOpts...)
	if cfg.History != nil {
		// navigations made from the edit dropdown are refinements, not
		// new searches
		editOpts = append(editOpts, overlay.WithSideEffect(
			func() { cfg.History.SuppressAdd(history.SearchTags, true) },
			func() { cfg.History.SuppressAdd(history.SearchTags, false) },
		))
	}
	b.edit = overlay.New(EditName, overlay.EditBuilder{
		Name:       EditName,
		History:    cfg.History,
		Kind:       history.SearchTags,
		Translator: cfg.Translator,
		Locale:     cfg.Locale,
	}, editOpts...)

	b.group = overlay.NewGroup(b.dropdown, b.edit)
	b.nav = overlay.NewNavigator(b.dropdown, b.input, b.abortAutocomplete)

	b.track(b.input.OnChange(b.inputChanged))
	if cfg.History != nil {
		b.track(cfg.History.Subscribe(history.SearchTags, func() { b.emit(HistoryChanged) }))
	}
	if cfg.ViewHidden != nil {
		b.track(cfg.ViewHidden.Subscribe(b.dropdown))
		b.track(cfg.ViewHidden.Subscribe(b.edit))
	}
	return b
}

// Input returns the search input.
func (b *Box) Input() *overlay.Input { return b.input }

// Dropdown returns the history dropdown.
func (b *Box) Dropdown() *overlay.Controller { return b.dropdown }

// Edit returns the edit dropdown.
func (b *Box) Edit() *overlay.Controller { return b.edit }

// Coalescer returns the autocomplete coalescer, or nil when autocomplete is
// not configured.
func (b *Box) Coalescer() *autocomplete.Coalescer { return b.coalescer }

// Active returns the open dropdown, if any.
func (b *Box) Active() *overlay.Controller { return b.group.Active() }

// BeginFocus shows the history dropdown unless the edit dropdown is open.
// It returns the population to run, or nil when nothing needs populating.
func (b *Box) BeginFocus() func() bool {
	if b.edit.Open() {
		return nil
	}
	return b.dropdown.BeginShow(b.ctx)
}

// Focus shows the history dropdown and waits for it to populate.
func (b *Box) Focus() bool {
	if run := b.BeginFocus(); run != nil {
		return run()
	}
	return b.dropdown.Visible()
}

// BeginToggleEdit closes the edit dropdown when it is open and opens it,
// hiding the history dropdown, otherwise.
func (b *Box) BeginToggleEdit() func() bool {
	if b.edit.Open() {
		b.edit.Hide()
		return nil
	}
	b.abortAutocomplete()
	return b.edit.BeginShow(b.ctx)
}

// ToggleEdit is BeginToggleEdit run to completion.
func (b *Box) ToggleEdit() bool {
	if run := b.BeginToggleEdit(); run != nil {
		return run()
	}
	return b.edit.Visible()
}

// Type records text typed by the user.
func (b *Box) Type(text string) {
	b.nav.Type(text)
}

// Move moves the selection of the open dropdown. In the history dropdown the
// selected search is copied into the input.
func (b *Box) Move(dir overlay.Direction) bool {
	switch {
	case b.edit.Open():
		_, ok := b.edit.Move(dir)
		return ok
	case b.dropdown.Open():
		return b.nav.Move(dir)
	}
	return false
}

// ClearSelection removes the highlight without touching the input.
func (b *Box) ClearSelection() {
	b.nav.Clear()
	b.edit.SetSelection(overlay.NoSelection)
}

// Highlighted reports whether tag is part of the current expression.
func (b *Box) Highlighted(tag string) bool {
	return search.Contains(b.input.Text(), tag)
}

// BeginRefresh repopulates whichever dropdowns are open after event.
func (b *Box) BeginRefresh(event Event) []func() overlay.Result {
	var runs []func() overlay.Result
	if run := b.dropdown.BeginRefresh(b.ctx); run != nil {
		runs = append(runs, run)
	}
	if event == HistoryChanged {
		if run := b.edit.BeginRefresh(b.ctx); run != nil {
			runs = append(runs, run)
		}
	}
	return runs
}

// Refresh runs BeginRefresh to completion.
func (b *Box) Refresh(event Event) {
	for _, run := range b.BeginRefresh(event) {
		run()
	}
}

// Submit runs the search in the input. Empty input is ignored. Input
// starting with "f:" sets the search filter instead. Every overlay in the
// view closes first.
func (b *Box) Submit(ctx context.Context) error {
	text := strings.TrimSpace(b.input.Text())
	if text == "" {
		return nil
	}
	events.Input.Submit(text)
	b.abortAutocomplete()
	b.hideView()

	if rest, ok := strings.CutPrefix(text, FilterPrefix); ok {
		filter := strings.TrimSpace(rest)
		if filter == "" {
			filter = "true"
		}
		if b.cfg.Settings == nil {
			return nil
		}
		if err := b.cfg.Settings.Set(settings.SearchFilter, filter); err != nil {
			return fmt.Errorf("set search filter: %w", err)
		}
		return nil
	}
	return b.navigateTo(ctx, text, true)
}

// ToggleTag adds tag to, or removes it from, the current expression and
// searches for the result without adding a browser history step.
func (b *Box) ToggleTag(ctx context.Context, tag string) error {
	expr := search.Toggle(b.input.Text(), tag)
	b.input.SetText(expr, overlay.OriginSelection)
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	return b.navigateTo(ctx, expr, false)
}

// ToggleSelected toggles the tag selected in the edit dropdown.
func (b *Box) ToggleSelected(ctx context.Context) error {
	entry, ok := b.edit.Selected()
	if !ok {
		return nil
	}
	return b.ToggleTag(ctx, entry.Key)
}

// RemoveSelected deletes the selected history entry from recent searches.
func (b *Box) RemoveSelected(ctx context.Context) error {
	entry, ok := b.dropdown.Selected()
	if !ok || entry.Source != overlay.SourceHistory || b.cfg.History == nil {
		return nil
	}
	if err := b.cfg.History.Remove(ctx, history.SearchTags, entry.Key); err != nil {
		return fmt.Errorf("remove recent search: %w", err)
	}
	return nil
}

// WidthKey returns the settings key of the open dropdown's width.
func (b *Box) WidthKey() string {
	if b.edit.Open() {
		return settings.SearchEditDropdownWidth
	}
	return settings.TagDropdownWidth
}

// Width returns the open dropdown's persisted width.
func (b *Box) Width() int {
	if b.cfg.Settings == nil {
		return settings.DefaultWidth
	}
	return b.cfg.Settings.Width(b.WidthKey())
}

// AdjustWidth widens or narrows the open dropdown and persists the result.
func (b *Box) AdjustWidth(delta int) int {
	if b.cfg.Settings == nil {
		return settings.DefaultWidth
	}
	return b.cfg.Settings.AdjustWidth(b.WidthKey(), delta)
}

// Hide closes both dropdowns.
func (b *Box) Hide() {
	b.abortAutocomplete()
	b.group.HideAll()
}

// Close releases every subscription and aborts outstanding requests.
func (b *Box) Close() {
	b.Hide()
	b.mu.Lock()
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
}

func (b *Box) navigateTo(ctx context.Context, expr string, addToHistory bool) error {
	if b.cfg.History != nil {
		if err := b.cfg.History.Add(ctx, history.SearchTags, expr); err != nil {
			logging.Error(err)
		}
	}
	if b.cfg.Navigator == nil {
		return nil
	}
	url := b.cfg.Navigator.BuildSearchURL(expr)
	if err := b.cfg.Navigator.Navigate(ctx, url, addToHistory); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (b *Box) hideView() {
	if b.cfg.ViewHidden != nil {
		b.cfg.ViewHidden.Send()
		return
	}
	b.group.HideAll()
}

func (b *Box) inputChanged(text string, origin overlay.Origin) {
	if origin != overlay.OriginUser || b.coalescer == nil {
		return
	}
	b.coalescer.OnQueryChanged(text)
}

func (b *Box) autocompleteResults() []autocomplete.Candidate {
	if b.coalescer == nil {
		return nil
	}
	return b.coalescer.Results()
}

func (b *Box) abortAutocomplete() {
	if b.coalescer != nil {
		b.coalescer.Abort()
	}
}

func (b *Box) emit(event Event) {
	if b.cfg.Notify != nil {
		b.cfg.Notify(event)
		return
	}
	b.Refresh(event)
}

func (b *Box) track(unsubscribe func()) {
	b.mu.Lock()
	b.unsubs = append(b.unsubs, unsubscribe)
	b.mu.Unlock()
}
