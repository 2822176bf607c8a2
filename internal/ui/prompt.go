package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/state"
)

var errNoTarget = errors.New("no work to bookmark")

// openEditor switches to the bookmark tag editor for target. The search
// dropdowns close while it is open.
func (m *Model) openEditor(target state.Target) tea.Cmd {
	if m.editor == nil {
		m.reportErr(errors.New("bookmarks unavailable"))
		return nil
	}
	if !target.Valid() {
		m.reportErr(errNoTarget)
		return nil
	}
	m.errMsg = ""
	m.box.Hide()
	m.menu.Hide()
	if m.editorLevel == nil || m.editorTarget.ID != target.ID {
		m.editorLevel = newLevel("bookmark", "Bookmark tags", nil, nil)
	}
	m.editorTarget = target
	if m.focus != FocusPrompt {
		m.focus = FocusEditor
	}
	run := m.editor.BeginShow(m.ctx, target.ID)
	if run == nil {
		m.syncEditorLevel()
		return nil
	}
	return showCmd(m.editor.Overlay().Name(), run)
}

// closeEditor leaves the editor, saving the toggles when save is set.
func (m *Model) closeEditor(save bool) {
	if m.editor != nil {
		if save {
			m.reportErr(m.editor.HideAndSave(m.ctx))
		} else {
			m.editor.HideWithoutSync()
		}
	}
	m.editorLevel = nil
	m.focus = FocusSearch
}

// syncEditorLevel rebuilds the editor list from the overlay's entries plus
// tags switched on that the entries do not contain yet.
func (m *Model) syncEditorLevel() {
	if m.editor == nil || m.editorLevel == nil {
		return
	}
	entries := m.editor.Overlay().Entries()
	items := make([]menu.Item, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		seen[entry.Key] = struct{}{}
		items = append(items, menu.Item{ID: entry.Key, Label: entry.Label})
	}
	for _, tag := range m.editor.Selected() {
		if _, ok := seen[tag]; !ok {
			items = append(items, menu.Item{ID: tag, Label: tag})
		}
	}
	m.editorLevel.UpdateItems(items)
	m.syncViewport(m.editorLevel)
}

// openTagPrompt asks for a tag to add to target's bookmark, opening the
// editor underneath first.
func (m *Model) openTagPrompt(target state.Target) tea.Cmd {
	if m.editor == nil || !target.Valid() {
		return m.openEditor(target)
	}
	m.focus = FocusPrompt
	cmd := m.openEditor(target)
	m.input.Blur()
	m.prompt.Reset()
	return tea.Batch(cmd, m.prompt.Focus())
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.prompt.Reset()
	m.input.Focus()
	if m.editorLevel != nil {
		m.focus = FocusEditor
		return
	}
	m.focus = FocusSearch
}
