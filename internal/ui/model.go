package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/backend"
	"github.com/atomicstack/tag-popup-control/internal/bookmark"
	"github.com/atomicstack/tag-popup-control/internal/contextmenu"
	"github.com/atomicstack/tag-popup-control/internal/data/dispatcher"
	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
	"github.com/atomicstack/tag-popup-control/internal/settings"
	"github.com/atomicstack/tag-popup-control/internal/state"
	"github.com/atomicstack/tag-popup-control/internal/theme"
	"github.com/atomicstack/tag-popup-control/internal/ui/command"
	uistate "github.com/atomicstack/tag-popup-control/internal/ui/state"
)

type level = uistate.Level

// Focus is the part of the screen receiving keys when no context menu is
// open.
type Focus int

const (
	FocusSearch Focus = iota
	FocusEditor
	FocusPrompt
)

const (
	widthStep  = 5
	loopBuffer = 16
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

func newLevel(id, title string, items []menu.Item, node *menu.Node) *level {
	return uistate.NewLevel(id, title, items, node)
}

// URLBuilder turns a search expression into the URL it opens.
type URLBuilder interface {
	BuildSearchURL(expr string) string
}

// Deps are the collaborators the model drives. Box is required; the rest
// may be nil.
type Deps struct {
	Context    context.Context
	Box        *searchbox.Box
	Editor     *bookmark.Editor
	Settings   *settings.Store
	Bridge     *backend.Bridge
	Targets    state.TargetStore
	URLs       URLBuilder
	ViewHidden *overlay.ViewHidden

	Width      int
	Height     int
	ShowFooter bool
	Verbose    bool
}

// Model implements the Bubble Tea model for the tag search popup.
type Model struct {
	ctx        context.Context
	box        *searchbox.Box
	editor     *bookmark.Editor
	settings   *settings.Store
	targets    state.TargetStore
	urls       URLBuilder
	backend    *backend.Bridge
	dispatcher *dispatcher.Dispatcher
	arbiter    *contextmenu.Arbiter
	loop       chan func()
	// waiters is false under the Harness, which pumps the channels itself.
	waiters bool

	focus        Focus
	input        textinput.Model
	prompt       textinput.Model
	menu         contextMenu
	editorLevel  *level
	editorTarget state.Target

	pressed    contextmenu.Button
	hasPressed bool
	hits       []rowHit
	menuRect   rect

	errMsg      string
	infoMsg     string
	infoExpire  time.Time
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	verbose     bool

	handlers map[reflect.Type]msgHandler
	registry *menu.Registry
	bus      *command.Bus
	unsubs   []func()
}

// NewModel builds the model around deps.
func NewModel(deps Deps) *Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	targets := deps.Targets
	if targets == nil {
		targets = state.NewTargetStore()
	}
	m := &Model{
		ctx:        ctx,
		box:        deps.Box,
		editor:     deps.Editor,
		settings:   deps.Settings,
		targets:    targets,
		urls:       deps.URLs,
		backend:    deps.Bridge,
		loop:       make(chan func(), loopBuffer),
		waiters:    true,
		registry:   menu.BuildRegistry(),
		bus:        command.New(),
		showFooter: deps.ShowFooter,
		verbose:    deps.Verbose,
	}
	m.menu.m = m
	var editor dispatcher.Editor
	if deps.Editor != nil {
		editor = deps.Editor
	}
	m.dispatcher = dispatcher.New(ctx, deps.Box, editor)
	m.arbiter = contextmenu.New(&m.menu, contextmenu.NewLoopScheduler(m.post),
		contextmenu.WithToggleMode(func() bool { return m.setting(settings.TouchpadMode) }),
		contextmenu.WithInvertHotkey(func() bool { return m.setting(settings.InvertPopupHotkey) }),
		contextmenu.WithEligible(func(ev contextmenu.PointerEvent) bool { return !ev.InsideMenu }),
	)
	if deps.ViewHidden != nil {
		m.unsubs = append(m.unsubs, deps.ViewHidden.Subscribe(hiderFunc(m.arbiter.VisibilityLost)))
	}
	if deps.Width > 0 {
		m.width = deps.Width
		m.fixedWidth = true
	}
	if deps.Height > 0 {
		m.height = deps.Height
		m.fixedHeight = true
	}
	m.input = newTextInput("search tags", styles.Prompt.Render("› "))
	m.input.Focus()
	m.prompt = newTextInput("new tag", styles.Prompt.Render("+ "))
	m.registerHandlers()
	return m
}

func newTextInput(placeholder, prompt string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = prompt
	ti.CharLimit = 256
	ti.PlaceholderStyle = *styles.Placeholder
	ti.Cursor.Style = *styles.Cursor
	return ti
}

type hiderFunc func()

func (f hiderFunc) Hide() { f() }

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if run := m.box.BeginFocus(); run != nil {
		cmds = append(cmds, showCmd(searchbox.DropdownName, run))
	}
	if m.waiters {
		cmds = append(cmds, waitForLoop(m.loop))
		if m.backend != nil {
			cmds = append(cmds, waitForBackendEvent(m.backend))
		}
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, m.finishUpdate(cmds)
	}
	if cmd := m.updateInputs(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, m.finishUpdate(cmds)
}

// Close releases the model's subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubs {
		fn()
	}
	m.unsubs = nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):                 m.handleKeyMsg,
		reflect.TypeOf(tea.MouseMsg{}):               m.handleMouseMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):          m.handleWindowSizeMsg,
		reflect.TypeOf(tea.BlurMsg{}):                m.handleBlurMsg,
		reflect.TypeOf(overlayShownMsg{}):            m.handleOverlayShownMsg,
		reflect.TypeOf(overlayRefreshedMsg{}):        m.handleOverlayRefreshedMsg,
		reflect.TypeOf(categoryLoadedMsg{}):          m.handleCategoryLoadedMsg,
		reflect.TypeOf(menu.ActionResult{}):          m.handleActionResultMsg,
		reflect.TypeOf(menu.SearchMsg{}):             m.handleSearchMsg,
		reflect.TypeOf(menu.OpenEditMsg{}):           m.handleOpenEditMsg,
		reflect.TypeOf(menu.OpenBookmarkEditorMsg{}): m.handleOpenBookmarkEditorMsg,
		reflect.TypeOf(menu.TagPromptMsg{}):          m.handleTagPromptMsg,
		reflect.TypeOf(backendEventMsg{}):            m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):             m.handleBackendDoneMsg,
		reflect.TypeOf(loopMsg{}):                    m.handleLoopMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

// updateInputs forwards everything else, cursor blinks included, to the
// text inputs.
func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var a, b tea.Cmd
	m.input, a = m.input.Update(msg)
	m.prompt, b = m.prompt.Update(msg)
	return tea.Batch(a, b)
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (m *Model) setting(key string) bool {
	if m.settings == nil {
		return false
	}
	return m.settings.Bool(key, false)
}

// useStaticCursors stops cursor blinking, which the Harness cannot drive.
func (m *Model) useStaticCursors() {
	m.input.Cursor.SetMode(cursor.CursorStatic)
	m.prompt.Cursor.SetMode(cursor.CursorStatic)
}
