// Package bookmark implements the bookmark tag editor: an overlay listing a
// target's bookmark tags together with recently used ones, where each tag
// can be toggled and the result is saved when the editor closes.
package bookmark

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/atomicstack/tag-popup-control/internal/history"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
)

// Bookmarks is the bookmark collaborator.
type Bookmarks interface {
	// Tags returns the target's tags and whether it is bookmarked.
	Tags(ctx context.Context, id string) ([]string, bool, error)
	SetTags(ctx context.Context, id string, tags []string) error
}

// Recents is the part of the history store the editor uses.
type Recents interface {
	Recent(ctx context.Context, kind string) ([]string, error)
	Add(ctx context.Context, kind, value string) error
}

// Tag is the metadata attached to every editor entry.
type Tag struct {
	// Saved reports whether the tag was on the bookmark when loaded.
	Saved bool
}

// Editor owns the bookmark tag overlay.
type Editor struct {
	bookmarks  Bookmarks
	recents    Recents
	translator overlay.Translator
	locale     string
	overlay    *overlay.Controller

	mu        sync.Mutex
	target    string
	overrides map[string]bool
}

// NewEditor builds the editor overlay. opts are passed to the overlay
// controller.
func NewEditor(bookmarks Bookmarks, recents Recents, translator overlay.Translator, locale string, opts ...overlay.Option) *Editor {
	e := &Editor{
		bookmarks:  bookmarks,
		recents:    recents,
		translator: translator,
		locale:     locale,
		overrides:  make(map[string]bool),
	}
	e.overlay = overlay.New("bookmark-tags", overlay.BuilderFunc(e.build), opts...)
	return e
}

// Overlay returns the underlying controller.
func (e *Editor) Overlay() *overlay.Controller {
	return e.overlay
}

// Target returns the bookmark being edited.
func (e *Editor) Target() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// BeginShow opens the editor for target. An editor already open for another
// target saves and closes first. The returned function runs the population
// and is nil when the editor was already open for target.
func (e *Editor) BeginShow(ctx context.Context, target string) func() bool {
	e.mu.Lock()
	same := e.target == target
	e.mu.Unlock()
	if !same && e.overlay.Open() {
		e.Hide()
	}
	e.mu.Lock()
	if !e.overlay.Open() {
		e.overrides = make(map[string]bool)
	}
	e.target = target
	e.mu.Unlock()
	return e.overlay.BeginShow(ctx)
}

// Show opens the editor and waits for it to populate.
func (e *Editor) Show(ctx context.Context, target string) bool {
	run := e.BeginShow(ctx, target)
	if run == nil {
		return e.overlay.Visible()
	}
	return run()
}

// Refresh repopulates an open editor. Toggles made by the user survive.
func (e *Editor) Refresh(ctx context.Context) overlay.Result {
	return e.overlay.Refresh(ctx)
}

// BeginRefresh returns the repopulation of an open editor, or nil when it is
// hidden.
func (e *Editor) BeginRefresh(ctx context.Context) func() overlay.Result {
	return e.overlay.BeginRefresh(ctx)
}

// Active reports whether tag is currently switched on.
func (e *Editor) Active(tag string) bool {
	e.mu.Lock()
	if v, ok := e.overrides[tag]; ok {
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()
	for _, entry := range e.overlay.Entries() {
		if entry.Key == tag {
			return saved(entry)
		}
	}
	return false
}

// Toggle flips tag and returns its new state.
func (e *Editor) Toggle(tag string) bool {
	next := !e.Active(tag)
	e.mu.Lock()
	e.overrides[tag] = next
	e.mu.Unlock()
	return next
}

// AddTag switches tag on and records it as a recent bookmark tag, which
// makes it appear in the list once the recents change propagates.
func (e *Editor) AddTag(ctx context.Context, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	e.mu.Lock()
	e.overrides[tag] = true
	e.mu.Unlock()
	if e.recents == nil {
		return nil
	}
	if err := e.recents.Add(ctx, history.BookmarkTags, tag); err != nil {
		return fmt.Errorf("add recent bookmark tag: %w", err)
	}
	return nil
}

// Selected returns the tags that are switched on, sorted.
func (e *Editor) Selected() []string {
	entries := e.overlay.Entries()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedLocked(entries)
}

// Changed reports whether the selection differs from what was loaded.
func (e *Editor) Changed() bool {
	entries := e.overlay.Entries()
	e.mu.Lock()
	defer e.mu.Unlock()
	return changed(entries, e.selectedLocked(entries))
}

// Hide closes the editor and saves the selection when it changed.
func (e *Editor) Hide() {
	if err := e.HideAndSave(context.Background()); err != nil {
		logging.Error(err)
	}
}

// HideAndSave closes the editor and saves the selection when it changed.
func (e *Editor) HideAndSave(ctx context.Context) error {
	if !e.overlay.Open() {
		return nil
	}
	entries := e.overlay.Entries()
	e.mu.Lock()
	target := e.target
	tags := e.selectedLocked(entries)
	dirty := e.overlay.Visible() && changed(entries, tags)
	e.overrides = make(map[string]bool)
	e.mu.Unlock()

	e.overlay.Hide()
	if !dirty || e.bookmarks == nil {
		return nil
	}
	if err := e.bookmarks.SetTags(ctx, target, tags); err != nil {
		return fmt.Errorf("save bookmark tags for %s: %w", target, err)
	}
	logging.Info("bookmark tags saved", "target", target, "tags", strings.Join(tags, " "))
	return nil
}

// HideWithoutSync closes the editor and discards the user's toggles.
func (e *Editor) HideWithoutSync() {
	e.mu.Lock()
	e.overrides = make(map[string]bool)
	e.mu.Unlock()
	e.overlay.Hide()
}

func (e *Editor) selectedLocked(entries []overlay.Entry) []string {
	var out []string
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		seen[entry.Key] = struct{}{}
		on := saved(entry)
		if v, ok := e.overrides[entry.Key]; ok {
			on = v
		}
		if on {
			out = append(out, entry.Key)
		}
	}
	for tag, on := range e.overrides {
		if _, ok := seen[tag]; !ok && on {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}

func changed(entries []overlay.Entry, selected []string) bool {
	var original []string
	for _, entry := range entries {
		if saved(entry) {
			original = append(original, entry.Key)
		}
	}
	slices.Sort(original)
	return !slices.Equal(original, selected)
}

func saved(entry overlay.Entry) bool {
	tag, ok := entry.Metadata.(Tag)
	return ok && tag.Saved
}

func (e *Editor) build(ctx context.Context) ([]overlay.Entry, error) {
	target := e.Target()

	var (
		current []string
		recent  []string
	)
	g, gctx := errgroup.WithContext(ctx)
	if e.bookmarks != nil && target != "" {
		g.Go(func() error {
			tags, _, err := e.bookmarks.Tags(gctx, target)
			if err != nil {
				return fmt.Errorf("bookmark tags for %s: %w", target, err)
			}
			current = tags
			return nil
		})
	}
	if e.recents != nil {
		g.Go(func() error {
			tags, err := e.recents.Recent(gctx, history.BookmarkTags)
			if err != nil {
				// recents only add suggestions
				logging.Error(fmt.Errorf("recent bookmark tags: %w", err))
				return nil
			}
			recent = tags
			return nil
		})
	}
	// the bookmark's own tags are required: saving a partial list on hide
	// would drop tags
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	savedSet := make(map[string]struct{}, len(current))
	var tags []string
	for _, t := range current {
		if _, ok := savedSet[t]; ok {
			continue
		}
		savedSet[t] = struct{}{}
		tags = append(tags, t)
	}
	for _, t := range recent {
		if _, ok := savedSet[t]; ok || slices.Contains(tags, t) {
			continue
		}
		tags = append(tags, t)
	}

	labels := map[string]string{}
	if e.translator != nil && len(tags) > 0 {
		got, err := e.translator.Translations(ctx, tags, e.locale)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Error(fmt.Errorf("bookmark tag translations: %w", err))
		} else {
			labels = got
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]overlay.Entry, 0, len(tags))
	for _, t := range tags {
		label := labels[t]
		if label == "" {
			label = t
		}
		_, isSaved := savedSet[t]
		entries = append(entries, overlay.Entry{
			Key:      t,
			Label:    label,
			Source:   overlay.SourceHistory,
			Words:    []overlay.Word{{Tag: t, Label: label, Translated: label != t}},
			Metadata: Tag{Saved: isSaved},
		})
	}
	overlay.SortByLabel(entries, e.locale)
	return entries, nil
}
