package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Keys understood by the popup.
const (
	KeySubmit         = "enter"
	KeyToggleEdit     = "ctrl+e"
	KeyRemoveHistory  = "ctrl+d"
	KeyBookmarkEditor = "ctrl+b"
	KeyAddTag         = "ctrl+n"
	KeyDiscard        = "ctrl+x"
	KeyToggleTag      = " "
	KeyWidenDropdown  = "alt+right"
	KeyNarrowDropdown = "alt+left"
	KeyContextMenu    = "ctrl+o"
	KeyClose          = "esc"
	KeyQuit           = "ctrl+c"
)

// Binding documents one key.
type Binding struct {
	Key  string
	Help string
}

// Bindings lists every key in display order.
func Bindings() []Binding {
	return []Binding{
		{KeySubmit, "search, or toggle the selected tag while editing"},
		{"up/down", "move through the open dropdown"},
		{KeyToggleEdit, "open or close the edit dropdown"},
		{KeyRemoveHistory, "forget the selected recent search"},
		{KeyNarrowDropdown + "/" + KeyWidenDropdown, "narrow or widen the dropdown"},
		{KeyBookmarkEditor, "edit bookmark tags"},
		{KeyAddTag, "add a bookmark tag"},
		{"space", "toggle a bookmark tag"},
		{KeyDiscard, "close the bookmark editor without saving"},
		{KeyContextMenu + "/right click", "open the context menu"},
		{KeyClose, "close the open overlay"},
		{KeyQuit, "quit"},
	}
}

func loadKeybindingMenu(Context) ([]Item, error) {
	bindings := Bindings()
	items := make([]Item, 0, len(bindings))
	for _, b := range bindings {
		items = append(items, Item{ID: b.Key, Label: b.Help, Hint: displayKey(b.Key)})
	}
	return items, nil
}

func KeybindingAction(ctx Context, item Item) tea.Cmd {
	key := strings.TrimSpace(item.ID)
	if key == "" && item.ID != KeyToggleTag {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("invalid key binding selection")} }
	}
	return func() tea.Msg {
		return ActionResult{Info: fmt.Sprintf("%s: %s", displayKey(item.ID), item.Label)}
	}
}

func displayKey(key string) string {
	if key == KeyToggleTag {
		return "space"
	}
	return key
}
