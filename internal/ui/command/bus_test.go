package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/menu"
)

func TestExecuteRunsHandlerWithItem(t *testing.T) {
	bus := New()
	var got menu.Item
	handler := func(ctx menu.Context, item menu.Item) tea.Cmd {
		got = item
		return func() tea.Msg { return menu.SearchMsg{Expr: ctx.Search + " " + item.ID} }
	}
	cmd := bus.Execute(menu.Context{Search: "cat"}, Request{ID: "search-tag", Handler: handler, Item: menu.Item{ID: "dog"}})
	if got.ID != "" {
		t.Fatalf("expected handler to run only when the command runs")
	}
	msg, ok := cmd().(menu.SearchMsg)
	if !ok || msg.Expr != "cat dog" {
		t.Fatalf("unexpected message %#v", msg)
	}
	if got.ID != "dog" {
		t.Fatalf("expected item dog, got %#v", got)
	}
}

func TestExecuteWithoutHandlerOrCommand(t *testing.T) {
	bus := New()
	if msg := bus.Execute(menu.Context{}, Request{ID: "none"})(); msg != nil {
		t.Fatalf("expected nil message without handler, got %#v", msg)
	}
	noop := func(menu.Context, menu.Item) tea.Cmd { return nil }
	if msg := bus.Execute(menu.Context{}, Request{ID: "noop", Handler: noop})(); msg != nil {
		t.Fatalf("expected nil message for nil command, got %#v", msg)
	}
}
