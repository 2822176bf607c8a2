package command

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"github.com/atomicstack/tag-popup-control/internal/menu"
)

// Request encapsulates an action invocation.
type Request struct {
	ID      string
	Label   string
	Handler menu.Action
	Item    menu.Item
}

// Bus runs context-menu actions off the UI goroutine.
type Bus struct {
	newRunID func() string
}

// New initialises a command bus instance.
func New() *Bus {
	return &Bus{newRunID: uuid.NewString}
}

// Execute wraps a menu action into a Bubble Tea command. Every trace record
// of one execution carries the same run ID.
func (b *Bus) Execute(ctx menu.Context, req Request) tea.Cmd {
	run := b.newRunID()
	events.Command.Queue(run, req.ID, req.Label)
	return func() tea.Msg {
		if req.Handler == nil {
			events.Command.Skip(run, req.ID, req.Label)
			return nil
		}
		cmd := req.Handler(ctx, req.Item)
		if cmd == nil {
			events.Command.NoOp(run, req.ID, req.Label)
			return nil
		}
		msg := cmd()
		events.Command.Result(run, req.ID, req.Label, fmt.Sprintf("%T", msg))
		return msg
	}
}
