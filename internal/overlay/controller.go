package overlay

import (
	"context"
	"fmt"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
)

// State is the visibility of an overlay.
type State int

const (
	Hidden State = iota
	// Showing means a show is waiting for its population to publish.
	Showing
	Visible
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case Visible:
		return "visible"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type sideEffect struct {
	apply  func()
	revert func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithSideEffect registers a pair of calls made while the overlay is open:
// apply when showing starts, revert when it hides or fails to show.
func WithSideEffect(apply, revert func()) Option {
	return func(c *Controller) {
		c.effects = append(c.effects, sideEffect{apply: apply, revert: revert})
	}
}

// WithOnChange registers a callback invoked after the visible state or the
// entry list changes. It is called without any overlay lock held.
func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller owns the visibility, entries, and selection of one overlay.
type Controller struct {
	name     string
	pipeline *Pipeline
	effects  []sideEffect
	onChange func()

	mu         sync.Mutex
	group      *Group
	state      State
	generation uint64
	entries    []Entry
	selection  Selection
	applied    bool
}

// New creates a hidden overlay populated by builder.
func New(name string, builder Builder, opts ...Option) *Controller {
	c := &Controller{name: name}
	c.pipeline = newPipeline(name, builder, &c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the overlay's identifier.
func (c *Controller) Name() string {
	return c.name
}

// State returns the current visibility state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visible reports whether the overlay is fully shown.
func (c *Controller) Visible() bool {
	return c.State() == Visible
}

// Open reports whether the overlay is showing or visible.
func (c *Controller) Open() bool {
	return c.State() != Hidden
}

// Generation returns the generation of the entries currently published.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Entries returns a copy of the current entry list.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEntries(c.entries)
}

// Selection returns the current selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Selected returns the selected entry, if any.
func (c *Controller) Selected() (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.selection.Index()
	if !ok || idx >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Show populates the overlay and makes it visible. It is a no-op when the
// overlay is already showing or visible. Show blocks until population ends
// and reports whether the overlay is visible afterwards; a show overtaken by
// Hide leaves the overlay hidden.
func (c *Controller) Show(ctx context.Context) bool {
	run := c.BeginShow(ctx)
	if run == nil {
		return c.Visible()
	}
	return run()
}

// BeginShow performs the synchronous half of Show: siblings are hidden, the
// overlay enters Showing, side effects apply, and the population is claimed.
// The returned function runs the population; it is nil when the overlay was
// already open. Hosts with an event loop call BeginShow on the loop and run
// the result in the background so that a later Hide always wins.
func (c *Controller) BeginShow(ctx context.Context) func() bool {
	c.mu.Lock()
	if c.state != Hidden {
		c.mu.Unlock()
		return nil
	}
	group := c.group
	c.mu.Unlock()

	if group != nil {
		group.hideOthers(c)
	}

	c.mu.Lock()
	if c.state != Hidden {
		c.mu.Unlock()
		return nil
	}
	c.state = Showing
	c.applyEffectsLocked()
	task := c.pipeline.startLocked(ctx)
	c.mu.Unlock()

	events.Overlay.Showing(c.name)
	c.notify()
	return func() bool {
		return c.runShow(task)
	}
}

func (c *Controller) runShow(task *Task) (visible bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("show %s: %v", c.name, r)
			logging.Error(err)
			events.Overlay.ShowFailed(c.name, err)
			c.abandonShow()
			visible = false
		}
	}()

	result := task.Run(c.publish)

	c.mu.Lock()
	state := c.state
	count := len(c.entries)
	gen := c.generation
	if state == Hidden {
		c.revertEffectsLocked()
	}
	c.mu.Unlock()

	switch {
	case state == Visible:
		events.Overlay.Shown(c.name, gen, count)
	case state == Hidden && result == Failed:
		events.Overlay.ShowFailed(c.name, nil)
	}
	c.notify()
	return state == Visible
}

// Refresh repopulates an overlay that is showing or visible, for example
// after its sources changed. Hidden overlays are left alone.
func (c *Controller) Refresh(ctx context.Context) Result {
	run := c.BeginRefresh(ctx)
	if run == nil {
		return Superseded
	}
	return run()
}

// BeginRefresh claims a new population for an open overlay and returns the
// function that runs it, or nil when the overlay is hidden.
func (c *Controller) BeginRefresh(ctx context.Context) func() Result {
	c.mu.Lock()
	if c.state == Hidden {
		c.mu.Unlock()
		return nil
	}
	task := c.pipeline.startLocked(ctx)
	c.mu.Unlock()
	return func() Result {
		result := task.Run(c.publish)
		c.mu.Lock()
		if c.state == Hidden {
			c.revertEffectsLocked()
		}
		c.mu.Unlock()
		if result != Superseded {
			c.notify()
		}
		return result
	}
}

// Hide cancels any pending population, discards the entry list, reverts
// side effects, and hides the overlay. It is a no-op when already hidden.
func (c *Controller) Hide() {
	c.mu.Lock()
	if c.state == Hidden {
		c.mu.Unlock()
		return
	}
	c.state = Hidden
	c.entries = nil
	c.selection = NoSelection
	c.pipeline.cancelLocked()
	c.revertEffectsLocked()
	c.mu.Unlock()

	events.Overlay.Hidden(c.name)
	c.notify()
}

// Move advances the selection circularly and returns the newly selected
// entry. It reports false when the list is empty.
func (c *Controller) Move(dir Direction) (Entry, bool) {
	c.mu.Lock()
	n := len(c.entries)
	if n == 0 {
		c.mu.Unlock()
		return Entry{}, false
	}
	idx, ok := c.selection.Index()
	switch {
	case !ok && dir == Next:
		idx = 0
	case !ok:
		idx = n - 1
	case dir == Next:
		idx = (idx + 1) % n
	default:
		idx = (idx - 1 + n) % n
	}
	c.selection = Select(idx)
	entry := c.entries[idx]
	c.mu.Unlock()

	events.Overlay.Selection(c.name, idx, entry.Key)
	c.notify()
	return entry, true
}

// SetSelection replaces the selection. Out-of-range indexes are rejected.
func (c *Controller) SetSelection(sel Selection) bool {
	c.mu.Lock()
	if idx, ok := sel.Index(); ok && (idx < 0 || idx >= len(c.entries)) {
		n := len(c.entries)
		c.mu.Unlock()
		violation("%s selection %d outside %d entries", c.name, idx, n)
		return false
	}
	changed := c.selection != sel
	c.selection = sel
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return true
}

// publish is called by the pipeline for the current population only. The
// pipeline shares c.mu, which is already held.
func (c *Controller) publish(gen uint64, entries []Entry, err error) {
	if c.state == Hidden {
		return
	}
	if err != nil {
		if c.state == Showing {
			c.state = Hidden
			c.entries = nil
			c.selection = NoSelection
		}
		return
	}
	c.selection = revalidate(c.entries, c.selection, entries)
	c.entries = cloneEntries(entries)
	c.generation = gen
	c.state = Visible
}

// revalidate keeps the selection on the same key when it survives the
// replacement, and clears it otherwise.
func revalidate(old []Entry, sel Selection, next []Entry) Selection {
	idx, ok := sel.Index()
	if !ok || idx >= len(old) {
		return NoSelection
	}
	key := old[idx].Key
	source := old[idx].Source
	for i, entry := range next {
		if entry.Key == key && entry.Source == source {
			return Select(i)
		}
	}
	return NoSelection
}

func (c *Controller) abandonShow() {
	c.mu.Lock()
	if c.state == Showing {
		c.state = Hidden
		c.entries = nil
		c.selection = NoSelection
		c.pipeline.cancelLocked()
	}
	if c.state == Hidden {
		c.revertEffectsLocked()
	}
	c.mu.Unlock()
	c.notify()
}

// Side effects run with the controller lock held and must not call back
// into the controller.
func (c *Controller) applyEffectsLocked() {
	if c.applied {
		return
	}
	c.applied = true
	for _, effect := range c.effects {
		if effect.apply != nil {
			effect.apply()
		}
	}
}

func (c *Controller) revertEffectsLocked() {
	if !c.applied {
		return
	}
	c.applied = false
	for i := len(c.effects) - 1; i >= 0; i-- {
		if revert := c.effects[i].revert; revert != nil {
			revert()
		}
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
