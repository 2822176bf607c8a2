// Package state holds the bookkeeping behind every rendered list: the
// context menu levels and the bookmark tag editor. It tracks the cursor, the
// type-to-filter query, and the viewport.
package state

import (
	"github.com/atomicstack/tag-popup-control/internal/menu"
)

// Level is one list on screen.
type Level struct {
	ID    string
	Title string
	// Items is the filtered view of Full.
	Items        []menu.Item
	Full         []menu.Item
	Filter       string
	FilterCursor int
	Cursor       int
	// LastCursor remembers the cursor while a filter is applied, and the
	// parent's cursor while a submenu is open.
	LastCursor     int
	Node           *menu.Node
	ViewportOffset int
}

// NewLevel builds a level over items with the cursor on the first one.
func NewLevel(id, title string, items []menu.Item, node *menu.Node) *Level {
	l := &Level{
		ID:         id,
		Title:      title,
		LastCursor: -1,
		Node:       node,
	}
	l.UpdateItems(items)
	l.Cursor = 0
	return l
}

// IndexOf returns the position of id among the visible items, or -1.
func (l *Level) IndexOf(id string) int {
	for i, item := range l.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Current returns the item under the cursor.
func (l *Level) Current() (menu.Item, bool) {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return menu.Item{}, false
	}
	return l.Items[l.Cursor], true
}

// UpdateItems replaces the list. The cursor follows the item it was on when
// that item is still visible.
func (l *Level) UpdateItems(items []menu.Item) {
	var keep string
	if item, ok := l.Current(); ok {
		keep = item.ID
	}
	l.Full = CloneItems(items)
	l.applyFilter()
	if keep == "" {
		return
	}
	if idx := l.IndexOf(keep); idx >= 0 {
		l.Cursor = idx
	}
}

// CloneItems returns a shallow copy of items.
func CloneItems(items []menu.Item) []menu.Item {
	if items == nil {
		return nil
	}
	dup := make([]menu.Item, len(items))
	copy(dup, items)
	return dup
}

// Row is a visible item and whether the cursor is on it.
type Row struct {
	menu.Item
	Selected bool
}
