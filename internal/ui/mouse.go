package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/contextmenu"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/settings"
)

type hitKind int

const (
	hitDropdown hitKind = iota
	hitEdit
	hitEditor
)

// rowHit records where View drew a clickable row.
type rowHit struct {
	kind  hitKind
	index int
	y     int
	// removeX is the first column of the remove mark, or -1.
	removeX int
}

type rect struct {
	top, left, w, h int
}

func (r rect) contains(x, y int) bool {
	return r.w > 0 && x >= r.left && x < r.left+r.w && y >= r.top && y < r.top+r.h
}

func (m *Model) handleMouseMsg(msg tea.Msg) tea.Cmd {
	ev, ok := msg.(tea.MouseMsg)
	if !ok {
		return nil
	}
	switch ev.Action {
	case tea.MouseActionPress:
		if ev.Button == tea.MouseButtonWheelUp || ev.Button == tea.MouseButtonWheelDown {
			m.scroll(ev.Button == tea.MouseButtonWheelDown)
			return nil
		}
		button, ok := pointerButton(ev.Button)
		if !ok {
			return nil
		}
		m.pressed, m.hasPressed = button, true
		pe := m.pointerEvent(ev, button)
		var cmd tea.Cmd
		if button == contextmenu.Left {
			cmd = m.leftPress(ev, pe.InsideMenu)
		}
		m.arbiter.PointerDown(pe)
		return cmd
	case tea.MouseActionRelease:
		button, ok := pointerButton(ev.Button)
		if !ok {
			if !m.hasPressed {
				return nil
			}
			button = m.pressed
		}
		m.hasPressed = false
		pe := m.pointerEvent(ev, button)
		var cmd tea.Cmd
		if pe.InsideMenu && !m.setting(settings.TouchpadMode) {
			if m.hoverMenu(ev.X, ev.Y) {
				cmd = m.activateMenuItem()
			}
		}
		m.arbiter.PointerUp(pe)
		return cmd
	case tea.MouseActionMotion:
		m.hoverMenu(ev.X, ev.Y)
	}
	return nil
}

func (m *Model) pointerEvent(ev tea.MouseMsg, button contextmenu.Button) contextmenu.PointerEvent {
	return contextmenu.PointerEvent{
		Button:     button,
		X:          ev.X,
		Y:          ev.Y,
		Modifier:   ev.Alt || ev.Ctrl,
		InsideMenu: m.menu.visible && m.menuRect.contains(ev.X, ev.Y),
	}
}

func pointerButton(b tea.MouseButton) (contextmenu.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return contextmenu.Left, true
	case tea.MouseButtonMiddle:
		return contextmenu.Middle, true
	case tea.MouseButtonRight:
		return contextmenu.Right, true
	}
	return 0, false
}

// leftPress handles a click on a list row. In toggle mode a click on a menu
// row activates it.
func (m *Model) leftPress(ev tea.MouseMsg, insideMenu bool) tea.Cmd {
	if insideMenu {
		if m.setting(settings.TouchpadMode) && m.hoverMenu(ev.X, ev.Y) {
			return m.activateMenuItem()
		}
		return nil
	}
	if m.menu.visible {
		return nil
	}
	for _, hit := range m.hits {
		if hit.y != ev.Y {
			continue
		}
		return m.clickRow(hit, ev.X)
	}
	return nil
}

func (m *Model) clickRow(hit rowHit, x int) tea.Cmd {
	switch hit.kind {
	case hitDropdown:
		dropdown := m.box.Dropdown()
		if !dropdown.SetSelection(overlay.Select(hit.index)) {
			return nil
		}
		if hit.removeX >= 0 && x >= hit.removeX {
			m.reportErr(m.box.RemoveSelected(m.ctx))
			return nil
		}
		entry, ok := dropdown.Selected()
		if !ok {
			return nil
		}
		m.box.Input().SetText(entry.Key, overlay.OriginSelection)
		m.syncInputFromBox()
		m.submit()
	case hitEdit:
		if !m.box.Edit().SetSelection(overlay.Select(hit.index)) {
			return nil
		}
		m.reportErr(m.box.ToggleSelected(m.ctx))
		m.syncInputFromBox()
	case hitEditor:
		if m.editorLevel == nil || hit.index >= len(m.editorLevel.Items) {
			return nil
		}
		m.editorLevel.SetCursor(hit.index)
		m.toggleEditorTag()
	}
	return nil
}

// hoverMenu moves the menu cursor to the row under the pointer and reports
// whether there is one.
func (m *Model) hoverMenu(x, y int) bool {
	lvl := m.menu.current()
	if lvl == nil || !m.menuRect.contains(x, y) {
		return false
	}
	// the first and last lines are the border
	row := y - m.menuRect.top - 1
	if row < 0 || row >= m.menuRect.h-2 {
		return false
	}
	index := lvl.ViewportOffset + row
	if index >= len(lvl.Items) {
		return false
	}
	lvl.SetCursor(index)
	return true
}

func (m *Model) scroll(down bool) {
	delta := -1
	if down {
		delta = 1
	}
	switch {
	case m.menu.visible:
		if lvl := m.menu.current(); lvl != nil {
			lvl.MoveCursor(delta)
			m.syncViewport(lvl)
		}
	case m.focus != FocusSearch:
		if m.editorLevel != nil {
			m.editorLevel.MoveCursor(delta)
			m.syncViewport(m.editorLevel)
		}
	default:
		dir := overlay.Next
		if !down {
			dir = overlay.Previous
		}
		if m.box.Active() != nil && m.box.Move(dir) {
			m.syncInputFromBox()
		}
	}
}

func (m *Model) handleBlurMsg(msg tea.Msg) tea.Cmd {
	m.hasPressed = false
	m.arbiter.FocusLost()
	return nil
}
