package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/backend"
	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/settings"
)

func waitForBackendEvent(b *backend.Bridge) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-b.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(backendEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.backend != nil && m.waiters {
		return tea.Batch(cmd, waitForBackendEvent(m.backend))
	}
	return cmd
}

func (m *Model) handleBackendDoneMsg(msg tea.Msg) tea.Cmd {
	m.backend = nil
	return nil
}

func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	res := m.dispatcher.Handle(evt)
	cmds := make([]tea.Cmd, 0, len(res.Refreshes))
	for _, run := range res.Refreshes {
		cmds = append(cmds, refreshCmd(evt.Kind.String(), run))
	}
	if res.SettingsChanged {
		m.applySettingChange(res.Setting)
	}
	return tea.Batch(cmds...)
}

func (m *Model) applySettingChange(key string) {
	switch key {
	case settings.TouchpadMode, settings.InvertPopupHotkey:
		if lvl := m.menu.find("settings"); lvl != nil {
			lvl.UpdateItems(menu.SettingsItems(m.menuContext()))
		}
	}
}

// loopMsg carries work queued from other goroutines, such as the context
// menu's timers, onto the UI goroutine.
type loopMsg struct {
	fn func()
}

func waitForLoop(loop <-chan func()) tea.Cmd {
	return func() tea.Msg {
		return loopMsg{fn: <-loop}
	}
}

func (m *Model) handleLoopMsg(msg tea.Msg) tea.Cmd {
	lm, ok := msg.(loopMsg)
	if !ok {
		return nil
	}
	if lm.fn != nil {
		lm.fn()
	}
	if m.waiters {
		return waitForLoop(m.loop)
	}
	return nil
}

// post queues fn for the UI goroutine. It never blocks, because the arbiter
// calls it with its lock held.
func (m *Model) post(fn func()) {
	select {
	case m.loop <- fn:
		return
	default:
	}
	go func() {
		select {
		case m.loop <- fn:
		case <-m.ctx.Done():
		}
	}()
}
