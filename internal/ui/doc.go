// Package ui contains the Bubble Tea program that drives the tag search
// popup: the search box with its history and edit dropdowns, the bookmark
// tag editor, and the context menu.
//
// Message flow:
//   - Model.Update routes every tea.Msg through a typed handler registry, so
//     each message kind is handled by one focused function. Keys go to the
//     open context menu first and otherwise to the focused area.
//   - Overlay populations never run on the UI goroutine. The overlay and
//     search box hand back run functions (BeginFocus, BeginToggleEdit,
//     BeginShow, BeginRefresh) which showCmd and refreshCmd wrap into
//     commands; their completions arrive as overlayShownMsg and
//     overlayRefreshedMsg.
//   - Collaborator changes (history, settings, autocomplete) arrive through a
//     backend.Bridge. applyBackendEvent hands them to the dispatcher, which
//     picks the overlays to refresh.
//   - The context menu arbiter schedules its deferred hides and timers
//     through post, which queues them on a channel the model drains as
//     loopMsg, so the menu is only touched from the UI goroutine.
//
// State ownership:
//   - Overlay entries and selections live in the overlay controllers. The
//     model only mirrors the bookmark editor's entries into a
//     internal/ui/state.Level for filtering and scrolling.
//   - Context-menu levels are internal/ui/state.Level values stacked by
//     contextMenu; menu actions run through the internal/ui/command bus.
package ui
