package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
)

// overlayShownMsg reports a finished show. Populations run inside commands
// so the UI goroutine never waits on a builder.
type overlayShownMsg struct {
	name    string
	visible bool
}

type overlayRefreshedMsg struct {
	name   string
	result overlay.Result
}

func showCmd(name string, run func() bool) tea.Cmd {
	if run == nil {
		return nil
	}
	return func() tea.Msg {
		return overlayShownMsg{name: name, visible: run()}
	}
}

func refreshCmd(name string, run func() overlay.Result) tea.Cmd {
	if run == nil {
		return nil
	}
	return func() tea.Msg {
		return overlayRefreshedMsg{name: name, result: run()}
	}
}

func (m *Model) handleOverlayShownMsg(msg tea.Msg) tea.Cmd {
	shown, ok := msg.(overlayShownMsg)
	if !ok {
		return nil
	}
	if m.editor == nil || shown.name != m.editor.Overlay().Name() {
		return nil
	}
	if !shown.visible {
		if !m.editor.Overlay().Open() {
			m.errMsg = fmt.Sprintf("Could not load bookmark tags for %s", m.editorTarget.Label())
			m.editorLevel = nil
			m.closePrompt()
		}
		return nil
	}
	m.syncEditorLevel()
	return nil
}

func (m *Model) handleOverlayRefreshedMsg(msg tea.Msg) tea.Cmd {
	refreshed, ok := msg.(overlayRefreshedMsg)
	if !ok {
		return nil
	}
	if refreshed.result == overlay.Failed {
		logging.Info("refresh kept previous entries", "source", refreshed.name)
	}
	if m.focus != FocusSearch {
		m.syncEditorLevel()
	}
	return nil
}

func (m *Model) handleActionResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(menu.ActionResult)
	if !ok {
		return nil
	}
	if result.Err != nil {
		m.errMsg = result.Err.Error()
		m.forceClearInfo()
		events.Action.Error(result.Err)
		return nil
	}
	m.errMsg = ""
	if result.Info != "" && m.verbose {
		m.setInfo(result.Info)
	}
	events.Action.Success(result.Info)
	return nil
}

func (m *Model) handleSearchMsg(msg tea.Msg) tea.Cmd {
	search, ok := msg.(menu.SearchMsg)
	if !ok {
		return nil
	}
	expr := strings.TrimSpace(search.Expr)
	if expr == "" {
		return nil
	}
	m.box.Input().SetText(expr, overlay.OriginSelection)
	m.syncInputFromBox()
	m.submit()
	return nil
}

func (m *Model) handleOpenEditMsg(msg tea.Msg) tea.Cmd {
	m.focus = FocusSearch
	if m.box.Edit().Open() {
		return nil
	}
	return showCmd(searchbox.EditName, m.box.BeginToggleEdit())
}

func (m *Model) handleOpenBookmarkEditorMsg(msg tea.Msg) tea.Cmd {
	open, ok := msg.(menu.OpenBookmarkEditorMsg)
	if !ok {
		return nil
	}
	return m.openEditor(open.Target)
}

func (m *Model) handleTagPromptMsg(msg tea.Msg) tea.Cmd {
	prompt, ok := msg.(menu.TagPromptMsg)
	if !ok {
		return nil
	}
	return m.openTagPrompt(prompt.Target)
}

func (m *Model) loadMenuCmd(id, title string, loader menu.Loader) tea.Cmd {
	ctx := m.menuContext()
	return func() tea.Msg {
		items, err := loader(ctx)
		if err != nil {
			logging.Error(err)
		}
		return categoryLoadedMsg{id: id, title: title, items: items, err: err}
	}
}

// categoryLoadedMsg mirrors the async loader response.
type categoryLoadedMsg struct {
	id    string
	title string
	items []menu.Item
	err   error
}

func (m *Model) menuContext() menu.Context {
	search := strings.TrimSpace(m.box.Input().Text())
	ctx := menu.Context{
		Search: search,
		Target: m.targets.Current(),
	}
	if search != "" && m.urls != nil {
		ctx.SearchURL = m.urls.BuildSearchURL(search)
	}
	if m.settings != nil {
		ctx.Settings = m.settings
	}
	return ctx
}
