// Package contextmenu decides when the custom context menu opens and closes
// and when the host's own context menu must be held back.
//
// Hosts report their context-menu request asynchronously and out of step
// with button presses, so the arbiter keeps the native menu blocked for a
// short window after every right-button interaction rather than only while
// the custom menu is open.
package contextmenu

import (
	"fmt"
	"sync"
	"time"

	"github.com/atomicstack/tag-popup-control/internal/logging/events"
)

// BlockDuration is how long the native menu stays blocked after the right
// button is released.
const BlockDuration = 50 * time.Millisecond

// Phase is the arbiter's state.
type Phase int

const (
	Idle Phase = iota
	// ButtonDown means a button is held without the native menu blocked.
	ButtonDown
	BlockedUntilMouseUp
	BlockedUntilTimer
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ButtonDown:
		return "button-down"
	case BlockedUntilMouseUp:
		return "blocked-until-mouse-up"
	case BlockedUntilTimer:
		return "blocked-until-timer"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Button identifies a pointer button.
type Button int

const (
	Left Button = iota
	Middle
	Right
)

// PointerEvent is one press or release.
type PointerEvent struct {
	Button Button
	X, Y   int
	// Modifier is set when the popup hotkey modifier is held.
	Modifier bool
	// InsideMenu is set when the pointer is over the open menu.
	InsideMenu bool
}

// Menu is the overlay driven by the arbiter. Its methods are called with the
// arbiter lock held and must not call back into the arbiter.
type Menu interface {
	Show(x, y int)
	Hide()
	Visible() bool
}

// Scheduler runs work later. After starts a timer and returns the call that
// stops it; Defer runs f on the next turn of the host's event loop.
type Scheduler interface {
	After(d time.Duration, f func()) (stop func() bool)
	Defer(f func())
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithToggleMode makes a click open or close the menu instead of
// press-and-hold. The function is consulted on every event so a settings
// change applies immediately.
func WithToggleMode(enabled func() bool) Option {
	return func(a *Arbiter) { a.toggleMode = enabled }
}

// WithInvertHotkey flips the modifier polarity: when the function reports
// true, the menu opens only while the modifier is held.
func WithInvertHotkey(inverted func() bool) Option {
	return func(a *Arbiter) { a.invertHotkey = inverted }
}

// WithEligible restricts which right presses may open the menu.
func WithEligible(fn func(PointerEvent) bool) Option {
	return func(a *Arbiter) { a.eligible = fn }
}

// Arbiter is the button-state machine for one context menu. It lives as
// long as the menu and persists across show/hide cycles.
type Arbiter struct {
	menu  Menu
	sched Scheduler

	toggleMode   func() bool
	invertHotkey func() bool
	eligible     func(PointerEvent) bool

	mu        sync.Mutex
	buttons   [3]bool
	phase     Phase
	stopTimer func() bool
	timerSeq  uint64
}

// New creates an idle arbiter for menu.
func New(menu Menu, sched Scheduler, opts ...Option) *Arbiter {
	a := &Arbiter{menu: menu, sched: sched}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Phase returns the current state.
func (a *Arbiter) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Held reports whether the button is currently pressed.
func (a *Arbiter) Held(b Button) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valid(b) && a.buttons[b]
}

// SuppressNative reports whether the host's own context menu must be
// blocked right now. A terminal has no native menu; a host that embeds the
// arbiter alongside one polls this.
func (a *Arbiter) SuppressNative() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.suppressLocked()
}

// ContextMenuRequested is called by a host with its own context menu when
// that menu asks to open. It reports whether the request must be swallowed.
func (a *Arbiter) ContextMenuRequested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	blocked := a.suppressLocked()
	if blocked {
		events.ContextMenu.NativeBlocked(a.phase.String())
	}
	return blocked
}

func (a *Arbiter) suppressLocked() bool {
	return a.phase == BlockedUntilMouseUp || a.phase == BlockedUntilTimer
}

// PointerDown feeds a button press.
func (a *Arbiter) PointerDown(ev PointerEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.valid(ev.Button) {
		return
	}
	a.buttons[ev.Button] = true
	toggle := a.toggle()
	opens := ev.Button == Right && a.opens(ev)

	// a right press that opens toggles the menu below instead
	if toggle && a.menu.Visible() && !ev.InsideMenu && !opens {
		a.deferHideLocked("outside-press")
	}

	if opens {
		if toggle && a.menu.Visible() {
			a.menu.Hide()
			events.ContextMenu.Close("toggle")
		} else {
			a.menu.Show(ev.X, ev.Y)
			events.ContextMenu.Open(ev.X, ev.Y)
		}
		a.cancelTimerLocked()
		a.setPhaseLocked(BlockedUntilMouseUp)
		return
	}
	if a.phase == Idle {
		a.setPhaseLocked(ButtonDown)
	}
}

// PointerUp feeds a button release.
func (a *Arbiter) PointerUp(ev PointerEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.valid(ev.Button) {
		return
	}
	a.buttons[ev.Button] = false

	if ev.Button == Right && a.phase == BlockedUntilMouseUp {
		a.setPhaseLocked(BlockedUntilTimer)
		a.startTimerLocked()
	}

	if !a.toggle() && a.menu.Visible() && (ev.Button == Left || ev.Button == Right) {
		if !a.buttons[Left] && !a.buttons[Right] {
			a.deferHideLocked("released")
		}
	}

	if a.phase == ButtonDown && !a.anyHeldLocked() {
		a.setPhaseLocked(Idle)
	}
}

// FocusLost force-hides the menu and resets all button state.
func (a *Arbiter) FocusLost() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked("focus-lost")
}

// VisibilityLost resets the arbiter when the surrounding view is hidden.
func (a *Arbiter) VisibilityLost() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked("view-hidden")
}

func (a *Arbiter) resetLocked(reason string) {
	a.cancelTimerLocked()
	a.buttons = [3]bool{}
	if a.menu.Visible() {
		a.menu.Hide()
		events.ContextMenu.Close(reason)
	}
	a.setPhaseLocked(Idle)
}

func (a *Arbiter) opens(ev PointerEvent) bool {
	if a.eligible != nil && !a.eligible(ev) {
		return false
	}
	inverted := a.invertHotkey != nil && a.invertHotkey()
	return ev.Modifier == inverted
}

func (a *Arbiter) toggle() bool {
	return a.toggleMode != nil && a.toggleMode()
}

func (a *Arbiter) valid(b Button) bool {
	return b >= Left && b <= Right
}

func (a *Arbiter) anyHeldLocked() bool {
	for _, held := range a.buttons {
		if held {
			return true
		}
	}
	return false
}

func (a *Arbiter) deferHideLocked(reason string) {
	a.sched.Defer(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if !a.menu.Visible() {
			return
		}
		// a press that reopened the menu in the meantime wins
		if a.buttons[Right] && a.phase == BlockedUntilMouseUp {
			return
		}
		a.menu.Hide()
		events.ContextMenu.Close(reason)
	})
}

func (a *Arbiter) startTimerLocked() {
	a.cancelTimerLocked()
	a.timerSeq++
	seq := a.timerSeq
	a.stopTimer = a.sched.After(BlockDuration, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if seq != a.timerSeq || a.phase != BlockedUntilTimer {
			return
		}
		a.stopTimer = nil
		if a.anyHeldLocked() {
			a.setPhaseLocked(ButtonDown)
			return
		}
		a.setPhaseLocked(Idle)
	})
}

func (a *Arbiter) cancelTimerLocked() {
	a.timerSeq++
	if a.stopTimer != nil {
		a.stopTimer()
		a.stopTimer = nil
	}
}

func (a *Arbiter) setPhaseLocked(next Phase) {
	if a.phase == next {
		return
	}
	events.ContextMenu.Phase(a.phase.String(), next.String())
	a.phase = next
}
