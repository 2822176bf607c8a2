package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/backend"
)

// Harness drives the UI model programmatically for integration tests. It
// runs commands inline and pumps the loop and backend channels itself, so
// the model never returns blocking waiters under it.
type Harness struct {
	model *Model
	quit  bool
}

// NewHarness creates a harness for the provided model.
func NewHarness(model *Model) *Harness {
	model.waiters = false
	model.useStaticCursors()
	return &Harness{model: model}
}

// Init runs the model's start-up commands.
func (h *Harness) Init() {
	h.processCmd(h.model.Init())
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(cmd)
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.processCmd(c)
		}
	case tea.QuitMsg:
		h.quit = true
	default:
		h.Send(msg)
	}
}

// Pump delivers whatever is queued on the loop and backend channels without
// waiting, and reports how many messages it delivered.
func (h *Harness) Pump() int {
	delivered := 0
	for {
		select {
		case fn := <-h.model.loop:
			h.Send(loopMsg{fn: fn})
		default:
			if !h.pumpBackend() {
				return delivered
			}
		}
		delivered++
	}
}

func (h *Harness) pumpBackend() bool {
	if h.model.backend == nil {
		return false
	}
	select {
	case evt, ok := <-h.model.backend.Events():
		if !ok {
			h.Send(backendDoneMsg{})
			return false
		}
		h.Send(backendEventMsg{event: evt})
		return true
	default:
		return false
	}
}

// Settle waits up to timeout for queued work, such as timer callbacks or
// throttled backend events, and delivers it.
func (h *Harness) Settle(timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		h.Pump()
		var events <-chan backend.Event
		if h.model.backend != nil {
			events = h.model.backend.Events()
		}
		select {
		case fn := <-h.model.loop:
			h.Send(loopMsg{fn: fn})
		case evt, ok := <-events:
			if !ok {
				h.Send(backendDoneMsg{})
				continue
			}
			h.Send(backendEventMsg{event: evt})
		case <-deadline:
			return
		}
	}
}

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}

// Quit reports whether the model asked the program to exit.
func (h *Harness) Quit() bool {
	return h.quit
}
