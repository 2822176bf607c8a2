package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/ui/command"
)

const (
	defaultVisibleItems = 10
	// chromeLines is the room the input, status and footer lines take.
	chromeLines = 4
)

// contextMenu is the menu the arbiter opens and closes. Submenus stack on
// top of the root level.
type contextMenu struct {
	m         *Model
	visible   bool
	x, y      int
	stack     []*level
	pendingID string
}

func (c *contextMenu) Show(x, y int) {
	m := c.m
	root := newLevel("root", "", menu.RootItems(m.menuContext()), m.registry.Root())
	c.stack = []*level{root}
	c.pendingID = ""
	c.x, c.y = max(x, 0), max(y, 0)
	c.visible = true
}

func (c *contextMenu) Hide() {
	c.visible = false
	c.stack = nil
	c.pendingID = ""
}

func (c *contextMenu) Visible() bool {
	return c.visible
}

func (c *contextMenu) current() *level {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

func (c *contextMenu) find(id string) *level {
	for _, lvl := range c.stack {
		if lvl.ID == id {
			return lvl
		}
	}
	return nil
}

// pop closes the top submenu, or the whole menu at the root.
func (c *contextMenu) pop() {
	if len(c.stack) <= 1 {
		c.Hide()
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.pendingID = ""
	if parent := c.current(); parent != nil && parent.LastCursor >= 0 && parent.LastCursor < len(parent.Items) {
		parent.Cursor = parent.LastCursor
		parent.LastCursor = -1
	}
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) tea.Cmd {
	lvl := m.menu.current()
	if lvl == nil {
		m.menu.Hide()
		return nil
	}
	moved := false
	switch msg.String() {
	case menu.KeyClose:
		m.menu.pop()
		m.errMsg = ""
		return nil
	case menu.KeySubmit:
		return m.activateMenuItem()
	case "up", "shift+tab":
		moved = lvl.MoveCursor(-1)
	case "down", "tab":
		moved = lvl.MoveCursor(1)
	case "home":
		moved = lvl.MoveCursorHome()
	case "end":
		moved = lvl.MoveCursorEnd()
	case "pgup":
		moved = lvl.MoveCursorPageUp(m.maxVisibleItems())
	case "pgdown":
		moved = lvl.MoveCursorPageDown(m.maxVisibleItems())
	default:
		m.editLevelFilter(lvl, msg)
	}
	if moved {
		events.Menu.Cursor(lvl.ID, lvl.Cursor)
	}
	m.syncViewport(lvl)
	return nil
}

// activateMenuItem runs the item under the menu cursor: a node with a
// loader opens its submenu, anything else runs an action.
func (m *Model) activateMenuItem() tea.Cmd {
	lvl := m.menu.current()
	if lvl == nil || m.menu.pendingID != "" {
		return nil
	}
	item, ok := lvl.Current()
	if !ok {
		return nil
	}
	events.Menu.Enter(lvl.ID, item.ID, item.Label)
	node, ok := m.registry.Resolve(lvl.ID, item)
	if !ok {
		m.setInfo(fmt.Sprintf("Nothing to do for %s", item.Label))
		return nil
	}
	ctx := m.menuContext()
	m.errMsg = ""
	if node.Loader != nil && node.ID != lvl.ID {
		lvl.LastCursor = lvl.Cursor
		m.menu.pendingID = node.ID
		return m.loadMenuCmd(node.ID, item.Label, node.Loader)
	}
	// Toggling a setting keeps the menu open so the new value shows.
	if node.ID != "settings" {
		m.menu.Hide()
	}
	return m.bus.Execute(ctx, command.Request{ID: node.ID, Label: item.Label, Handler: node.Action, Item: item})
}

func (m *Model) handleCategoryLoadedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(categoryLoadedMsg)
	if !ok {
		return nil
	}
	if !m.menu.visible || update.id != m.menu.pendingID {
		return nil
	}
	m.menu.pendingID = ""
	if update.err != nil {
		m.errMsg = update.err.Error()
		return nil
	}
	node, _ := m.registry.Find(update.id)
	lvl := newLevel(update.id, update.title, update.items, node)
	m.syncViewport(lvl)
	m.menu.stack = append(m.menu.stack, lvl)
	if len(lvl.Items) == 0 {
		m.setInfo("No entries found.")
	}
	return nil
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.EnsureCursorVisible(m.maxVisibleItems())
}

func (m *Model) maxVisibleItems() int {
	if m.height <= 0 {
		return defaultVisibleItems
	}
	return max(m.height-chromeLines, 1)
}
