package menu

import (
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/settings"
	"github.com/atomicstack/tag-popup-control/internal/state"
)

// Item represents a selectable context-menu entry.
type Item struct {
	ID    string
	Label string
	// Hint is shown in a second column: a key or a current value.
	Hint string
}

// Preferences is the settings access menu actions need.
type Preferences interface {
	Bool(key string, def bool) bool
	SetBool(key string, value bool) error
}

// Context carries runtime data needed by loaders and actions.
type Context struct {
	Search    string
	SearchURL string
	Target    state.Target
	Settings  Preferences
}

// Loader populates submenu entries on demand.
type Loader func(Context) ([]Item, error)

type Action func(Context, Item) tea.Cmd

// ActionResult communicates the outcome of executing a menu action.
type ActionResult struct {
	Info string
	Err  error
}

// SearchMsg asks the UI to search for an expression.
type SearchMsg struct {
	Expr string
}

// OpenEditMsg asks the UI to open the edit dropdown.
type OpenEditMsg struct{}

// OpenBookmarkEditorMsg asks the UI to open the bookmark tag editor.
type OpenBookmarkEditorMsg struct {
	Target state.Target
}

// TagPromptMsg asks the UI to prompt for a tag to add to the bookmark.
type TagPromptMsg struct {
	Target state.Target
}

// RootItems returns the top-level entries that apply to ctx.
func RootItems(ctx Context) []Item {
	items := make([]Item, 0, 8)
	if len(ctx.Target.Tags) > 0 {
		items = append(items,
			Item{ID: "search-target", Label: "Search all tags of " + ctx.Target.Label()},
			Item{ID: "search-tag", Label: "Search one tag", Hint: fmt.Sprintf("%d", len(ctx.Target.Tags))},
		)
	}
	items = append(items, Item{ID: "edit-search", Label: "Edit search tags", Hint: KeyToggleEdit})
	if ctx.Target.Valid() {
		items = append(items,
			Item{ID: "bookmark", Label: "Edit bookmark tags", Hint: KeyBookmarkEditor},
			Item{ID: "add-bookmark-tag", Label: "Add bookmark tag", Hint: KeyAddTag},
		)
	}
	if strings.TrimSpace(ctx.Search) != "" {
		items = append(items, Item{ID: "copy-url", Label: "Copy search URL"})
	}
	items = append(items,
		Item{ID: "settings", Label: "Settings"},
		Item{ID: "keys", Label: "Keys"},
	)
	return items
}

// CategoryLoaders lists submenu loaders keyed by root item ID.
func CategoryLoaders() map[string]Loader {
	return map[string]Loader{
		"search-tag": loadSearchTagMenu,
		"settings":   loadSettingsMenu,
		"keys":       loadKeybindingMenu,
	}
}

// ActionHandlers maps menu identifiers to their execution logic.
func ActionHandlers() map[string]Action {
	return map[string]Action{
		"search-target":    SearchTargetAction,
		"search-tag":       SearchTagAction,
		"edit-search":      EditSearchAction,
		"bookmark":         BookmarkAction,
		"add-bookmark-tag": AddBookmarkTagAction,
		"copy-url":         CopyURLAction,
		"settings":         SettingsToggleAction,
		"keys":             KeybindingAction,
	}
}

func loadSearchTagMenu(ctx Context) ([]Item, error) {
	items := make([]Item, 0, len(ctx.Target.Tags))
	for _, tag := range ctx.Target.Tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		items = append(items, Item{ID: tag, Label: tag})
	}
	return items, nil
}

// SettingsItems lists the toggles with their current values.
func SettingsItems(ctx Context) []Item {
	keys := []string{settings.TouchpadMode, settings.InvertPopupHotkey}
	items := make([]Item, 0, len(keys))
	for _, key := range keys {
		value := false
		if ctx.Settings != nil {
			value = ctx.Settings.Bool(key, false)
		}
		items = append(items, Item{ID: key, Label: prettyLabel(key), Hint: onOff(value)})
	}
	return items
}

func loadSettingsMenu(ctx Context) ([]Item, error) {
	return SettingsItems(ctx), nil
}

func SearchTargetAction(ctx Context, item Item) tea.Cmd {
	expr := strings.Join(ctx.Target.Tags, " ")
	if strings.TrimSpace(expr) == "" {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("%s has no tags", ctx.Target.Label())} }
	}
	return func() tea.Msg { return SearchMsg{Expr: expr} }
}

func SearchTagAction(ctx Context, item Item) tea.Cmd {
	tag := strings.TrimSpace(item.ID)
	if tag == "" {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("invalid tag selection")} }
	}
	return func() tea.Msg { return SearchMsg{Expr: tag} }
}

func EditSearchAction(ctx Context, item Item) tea.Cmd {
	return func() tea.Msg { return OpenEditMsg{} }
}

func BookmarkAction(ctx Context, item Item) tea.Cmd {
	if !ctx.Target.Valid() {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("no work to bookmark")} }
	}
	return func() tea.Msg { return OpenBookmarkEditorMsg{Target: ctx.Target} }
}

func AddBookmarkTagAction(ctx Context, item Item) tea.Cmd {
	if !ctx.Target.Valid() {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("no work to bookmark")} }
	}
	return func() tea.Msg { return TagPromptMsg{Target: ctx.Target} }
}

func SettingsToggleAction(ctx Context, item Item) tea.Cmd {
	key := strings.TrimSpace(item.ID)
	return func() tea.Msg {
		if ctx.Settings == nil {
			return ActionResult{Err: fmt.Errorf("settings unavailable")}
		}
		next := !ctx.Settings.Bool(key, false)
		if err := ctx.Settings.SetBool(key, next); err != nil {
			return ActionResult{Err: fmt.Errorf("set %s: %w", key, err)}
		}
		return ActionResult{Info: fmt.Sprintf("%s %s", prettyLabel(key), onOff(next))}
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func prettyLabel(id string) string {
	if id == "" {
		return id
	}
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		if i == 0 && len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
