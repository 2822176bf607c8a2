package overlay

import (
	"slices"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/logging/events"
)

// Origin records who changed an input's text.
type Origin int

const (
	// OriginUser is typing, pasting, or any other direct edit.
	OriginUser Origin = iota
	// OriginSelection is text written by keyboard navigation. Listeners
	// must not repopulate or query autocomplete for it.
	OriginSelection
)

func (o Origin) String() string {
	if o == OriginSelection {
		return "selection"
	}
	return "user"
}

// InputListener observes text changes of an Input.
type InputListener func(text string, origin Origin)

// Input is the text field an overlay is anchored to.
type Input struct {
	mu        sync.Mutex
	text      string
	next      int
	listeners map[int]InputListener
}

// NewInput returns an empty input.
func NewInput() *Input {
	return &Input{listeners: make(map[int]InputListener)}
}

// Text returns the displayed text.
func (in *Input) Text() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

// SetText replaces the displayed text and notifies listeners when it
// changed. It reports whether the text changed.
func (in *Input) SetText(text string, origin Origin) bool {
	in.mu.Lock()
	if in.text == text {
		in.mu.Unlock()
		return false
	}
	in.text = text
	ids := make([]int, 0, len(in.listeners))
	for id := range in.listeners {
		ids = append(ids, id)
	}
	listeners := make([]InputListener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, in.listeners[id])
	}
	in.mu.Unlock()

	events.Input.Changed(text, origin.String())
	for _, fn := range listeners {
		fn(text, origin)
	}
	return true
}

// OnChange registers fn and returns the call that removes it.
func (in *Input) OnChange(fn InputListener) (unsubscribe func()) {
	in.mu.Lock()
	id := in.next
	in.next++
	in.listeners[id] = fn
	in.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			in.mu.Lock()
			delete(in.listeners, id)
			in.mu.Unlock()
		})
	}
}

// Navigator drives keyboard selection of an overlay and mirrors the
// selected entry into its input.
type Navigator struct {
	overlay    *Controller
	input      *Input
	onNavigate func()
}

// NewNavigator binds an overlay to its input. onNavigate, when set, runs
// before the input text changes; the live search box uses it to abort an
// in-flight autocomplete request.
func NewNavigator(overlay *Controller, input *Input, onNavigate func()) *Navigator {
	return &Navigator{overlay: overlay, input: input, onNavigate: onNavigate}
}

// Move selects the next or previous entry and writes its key into the
// input as a selection-originated change. It is a no-op on an empty list.
func (n *Navigator) Move(dir Direction) bool {
	entry, ok := n.overlay.Move(dir)
	if !ok {
		return false
	}
	if n.onNavigate != nil {
		n.onNavigate()
	}
	n.input.SetText(entry.Key, OriginSelection)
	return true
}

// Type records user-typed text. The highlighted entry is cleared first so
// the next Move starts from the ends of the list again.
func (n *Navigator) Type(text string) bool {
	n.overlay.SetSelection(NoSelection)
	return n.input.SetText(text, OriginUser)
}

// Clear removes the highlight without touching the input text.
func (n *Navigator) Clear() {
	n.overlay.SetSelection(NoSelection)
}
