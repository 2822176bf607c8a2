package ui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if keyMsg.String() == menu.KeyQuit {
		return m.quit()
	}
	if m.menu.visible {
		return m.handleMenuKey(keyMsg)
	}
	switch m.focus {
	case FocusPrompt:
		return m.handlePromptKey(keyMsg)
	case FocusEditor:
		return m.handleEditorKey(keyMsg)
	default:
		return m.handleSearchKey(keyMsg)
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case menu.KeyClose:
		if m.box.Active() != nil {
			m.box.Hide()
			return nil
		}
		return m.quit()
	case menu.KeySubmit:
		if m.box.Edit().Open() {
			m.reportErr(m.box.ToggleSelected(m.ctx))
			m.syncInputFromBox()
			return nil
		}
		m.submit()
		return nil
	case menu.KeyToggleEdit:
		return showCmd(searchbox.EditName, m.box.BeginToggleEdit())
	case "down", "tab":
		return m.moveSearch(overlay.Next)
	case "up", "shift+tab":
		return m.moveSearch(overlay.Previous)
	case menu.KeyRemoveHistory:
		m.reportErr(m.box.RemoveSelected(m.ctx))
		return nil
	case menu.KeyWidenDropdown:
		m.box.AdjustWidth(widthStep)
		return nil
	case menu.KeyNarrowDropdown:
		m.box.AdjustWidth(-widthStep)
		return nil
	case menu.KeyBookmarkEditor:
		return m.openEditor(m.targets.Current())
	case menu.KeyAddTag:
		return m.openTagPrompt(m.targets.Current())
	case menu.KeyContextMenu:
		m.menu.Show(2, 1)
		return nil
	}
	return m.typeSearch(msg)
}

func (m *Model) moveSearch(dir overlay.Direction) tea.Cmd {
	if m.box.Active() == nil {
		return showCmd(searchbox.DropdownName, m.box.BeginFocus())
	}
	if m.box.Move(dir) {
		m.syncInputFromBox()
	}
	return nil
}

// typeSearch hands the key to the text input and reports any change to the
// search box as typing.
func (m *Model) typeSearch(msg tea.KeyMsg) tea.Cmd {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	after := m.input.Value()
	if after == before {
		return cmd
	}
	m.errMsg = ""
	m.box.Type(after)
	if m.box.Active() == nil {
		return tea.Batch(cmd, showCmd(searchbox.DropdownName, m.box.BeginFocus()))
	}
	return cmd
}

func (m *Model) submit() {
	m.reportErr(m.box.Submit(m.ctx))
	m.syncInputFromBox()
}

// syncInputFromBox copies selection-made changes back into the text input.
func (m *Model) syncInputFromBox() {
	text := m.box.Input().Text()
	if m.input.Value() == text {
		return
	}
	m.input.SetValue(text)
	m.input.CursorEnd()
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	lvl := m.editorLevel
	switch msg.String() {
	case menu.KeyClose:
		m.closeEditor(true)
		return nil
	case menu.KeyDiscard:
		m.closeEditor(false)
		return nil
	case menu.KeyAddTag:
		return m.openTagPrompt(m.editorTarget)
	case menu.KeySubmit, menu.KeyToggleTag:
		m.toggleEditorTag()
		return nil
	case "down", "tab":
		if lvl != nil {
			lvl.MoveCursor(1)
			m.syncViewport(lvl)
		}
		return nil
	case "up", "shift+tab":
		if lvl != nil {
			lvl.MoveCursor(-1)
			m.syncViewport(lvl)
		}
		return nil
	}
	if lvl != nil && m.editLevelFilter(lvl, msg) {
		m.syncViewport(lvl)
	}
	return nil
}

func (m *Model) toggleEditorTag() {
	if m.editor == nil || m.editorLevel == nil {
		return
	}
	item, ok := m.editorLevel.Current()
	if !ok {
		return
	}
	m.editor.Toggle(item.ID)
}

// editLevelFilter applies filter-editing keys to lvl.
func (m *Model) editLevelFilter(lvl *level, msg tea.KeyMsg) bool {
	switch msg.String() {
	case "ctrl+u":
		if lvl.Filter == "" {
			return false
		}
		lvl.SetFilter("", 0)
		return true
	case "ctrl+w":
		return lvl.DeleteFilterWordBackward()
	case "left":
		return lvl.MoveFilterCursor(-1)
	case "right":
		return lvl.MoveFilterCursor(1)
	}
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		return lvl.DeleteFilterRuneBackward()
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return false
		}
		for _, r := range msg.Runes {
			if unicode.IsControl(r) {
				return false
			}
		}
		return lvl.InsertFilterText(string(msg.Runes))
	}
	return false
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case menu.KeyClose:
		m.closePrompt()
		return nil
	case menu.KeySubmit:
		tag := m.prompt.Value()
		m.closePrompt()
		if m.editor == nil {
			return nil
		}
		if err := m.editor.AddTag(m.ctx, tag); err != nil {
			m.reportErr(err)
			return nil
		}
		m.syncEditorLevel()
		return nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) reportErr(err error) {
	if err == nil {
		return
	}
	m.errMsg = err.Error()
	m.forceClearInfo()
}

func (m *Model) quit() tea.Cmd {
	if m.editor != nil {
		m.reportErr(m.editor.HideAndSave(m.ctx))
	}
	m.menu.Hide()
	m.box.Hide()
	return tea.Quit
}
