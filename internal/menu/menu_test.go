package menu

import (
	"errors"
	"reflect"
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/settings"
	"github.com/atomicstack/tag-popup-control/internal/state"
)

type memoryPrefs map[string]bool

func (m memoryPrefs) Bool(key string, def bool) bool {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func (m memoryPrefs) SetBool(key string, value bool) error {
	m[key] = value
	return nil
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestRootItemsFollowContext(t *testing.T) {
	bare := ids(RootItems(Context{}))
	if want := []string{"edit-search", "settings", "keys"}; !reflect.DeepEqual(bare, want) {
		t.Fatalf("bare root = %v, want %v", bare, want)
	}

	full := ids(RootItems(Context{
		Search: "cat",
		Target: state.Target{ID: "42", Tags: []string{"cat", "dog"}},
	}))
	want := []string{"search-target", "search-tag", "edit-search", "bookmark", "add-bookmark-tag", "copy-url", "settings", "keys"}
	if !reflect.DeepEqual(full, want) {
		t.Fatalf("full root = %v, want %v", full, want)
	}
}

func TestRegistryResolve(t *testing.T) {
	r := BuildRegistry()
	node, ok := r.Resolve("root", Item{ID: "settings"})
	if !ok || node.Loader == nil {
		t.Fatalf("settings should open a submenu")
	}
	node, ok = r.Resolve("root", Item{ID: "edit-search"})
	if !ok || node.Action == nil || node.ID != "edit-search" {
		t.Fatalf("edit-search should run its action")
	}
	node, ok = r.Resolve("search-tag", Item{ID: "cat"})
	if !ok || node.ID != "search-tag" {
		t.Fatalf("tag items should use the level action, got %+v", node)
	}
	if _, ok := r.Resolve("root", Item{ID: "missing"}); ok {
		t.Fatalf("unknown item resolved")
	}
}

func TestSearchActions(t *testing.T) {
	ctx := Context{Target: state.Target{ID: "42", Tags: []string{"cat", "dog"}}}
	if msg := SearchTargetAction(ctx, Item{})(); !reflect.DeepEqual(msg, SearchMsg{Expr: "cat dog"}) {
		t.Fatalf("msg = %#v", msg)
	}
	if msg := SearchTagAction(ctx, Item{ID: "dog"})(); !reflect.DeepEqual(msg, SearchMsg{Expr: "dog"}) {
		t.Fatalf("msg = %#v", msg)
	}
	items, _ := loadSearchTagMenu(ctx)
	if !reflect.DeepEqual(ids(items), []string{"cat", "dog"}) {
		t.Fatalf("tag items = %v", ids(items))
	}
	if res, ok := BookmarkAction(Context{}, Item{})().(ActionResult); !ok || res.Err == nil {
		t.Fatalf("expected error without a target")
	}
}

func TestSettingsToggle(t *testing.T) {
	prefs := memoryPrefs{}
	ctx := Context{Settings: prefs}
	items := SettingsItems(ctx)
	if len(items) != 2 || items[0].Hint != "off" {
		t.Fatalf("items = %+v", items)
	}
	res := SettingsToggleAction(ctx, Item{ID: settings.TouchpadMode})().(ActionResult)
	if res.Err != nil || !prefs[settings.TouchpadMode] {
		t.Fatalf("toggle failed: %+v", res)
	}
	if res.Info != "Touchpad mode on" {
		t.Fatalf("info = %q", res.Info)
	}
	if SettingsItems(ctx)[0].Hint != "on" {
		t.Fatalf("hint did not follow the setting")
	}
}

func TestCopyURLAction(t *testing.T) {
	restoreWrite, restoreUnsupported := writeClipboard, clipboardUnsupported
	t.Cleanup(func() {
		writeClipboard = restoreWrite
		clipboardUnsupported = restoreUnsupported
	})
	clipboardUnsupported = func() bool { return false }

	var copied string
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	ctx := Context{SearchURL: "https://example.net/tags/cat/artworks"}
	res := CopyURLAction(ctx, Item{})().(ActionResult)
	if res.Err != nil || copied != ctx.SearchURL {
		t.Fatalf("copy failed: %v, copied %q", res.Err, copied)
	}

	writeClipboard = func(string) error { return errors.New("denied") }
	if res := CopyURLAction(ctx, Item{})().(ActionResult); res.Err == nil {
		t.Fatalf("expected clipboard error")
	}
	clipboardUnsupported = func() bool { return true }
	if res := CopyURLAction(ctx, Item{})().(ActionResult); res.Err == nil {
		t.Fatalf("expected error without a clipboard utility")
	}
	if res := CopyURLAction(Context{}, Item{})().(ActionResult); res.Err == nil {
		t.Fatalf("expected error without a URL")
	}
}

func TestKeybindingMenu(t *testing.T) {
	items, err := loadKeybindingMenu(Context{})
	if err != nil || len(items) != len(Bindings()) {
		t.Fatalf("items = %v err = %v", items, err)
	}
	for _, item := range items {
		if item.Hint == " " {
			t.Fatalf("space key shown blank")
		}
	}
	res := KeybindingAction(Context{}, Item{ID: KeyToggleTag, Label: "toggle"})().(ActionResult)
	if res.Info != "space: toggle" {
		t.Fatalf("info = %q", res.Info)
	}
}
