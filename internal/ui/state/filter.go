package state

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomicstack/tag-popup-control/internal/menu"
)

// SetFilter replaces the filter query and its cursor. Clearing the filter
// puts the cursor back where it was before filtering started.
func (l *Level) SetFilter(query string, cursor int) {
	trimmed := strings.TrimSpace(query)
	wasFiltering := strings.TrimSpace(l.Filter) != ""
	if trimmed != "" && !wasFiltering {
		l.LastCursor = l.Cursor
	}
	l.Filter = query
	l.FilterCursor = min(max(cursor, 0), len([]rune(query)))
	l.applyFilter()

	switch {
	case trimmed != "":
		l.Cursor = max(BestMatchIndex(l.Items, trimmed), 0)
	case wasFiltering:
		if l.LastCursor >= 0 && l.LastCursor < len(l.Items) {
			l.Cursor = l.LastCursor
		}
		l.LastCursor = -1
	}
}

func (l *Level) applyFilter() {
	l.Items = FilterItems(l.Full, l.Filter)
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	l.Cursor = min(max(l.Cursor, 0), len(l.Items)-1)
	if l.ViewportOffset > len(l.Items)-1 {
		l.ViewportOffset = 0
	}
}

// FilterCursorPos returns the rune offset of the filter cursor.
func (l *Level) FilterCursorPos() int {
	return min(max(l.FilterCursor, 0), len([]rune(l.Filter)))
}

// InsertFilterText inserts text at the filter cursor.
func (l *Level) InsertFilterText(text string) bool {
	insert := []rune(text)
	if len(insert) == 0 {
		return false
	}
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	updated := make([]rune, 0, len(runes)+len(insert))
	updated = append(updated, runes[:pos]...)
	updated = append(updated, insert...)
	updated = append(updated, runes[pos:]...)
	l.SetFilter(string(updated), pos+len(insert))
	return true
}

// DeleteFilterRuneBackward deletes the rune before the filter cursor.
func (l *Level) DeleteFilterRuneBackward() bool {
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	if pos == 0 {
		return false
	}
	updated := append(runes[:pos-1:pos-1], runes[pos:]...)
	l.SetFilter(string(updated), pos-1)
	return true
}

// DeleteFilterWordBackward deletes the word before the filter cursor.
func (l *Level) DeleteFilterWordBackward() bool {
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	if pos == 0 {
		return false
	}
	i := pos
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	updated := append(runes[:i:i], runes[pos:]...)
	l.SetFilter(string(updated), i)
	return true
}

// MoveFilterCursor moves the filter cursor by delta runes.
func (l *Level) MoveFilterCursor(delta int) bool {
	pos := l.FilterCursorPos()
	next := min(max(pos+delta, 0), len([]rune(l.Filter)))
	if next == pos {
		return false
	}
	l.FilterCursor = next
	return true
}

// FilterItems returns the items whose label or ID fuzzily matches query, in
// their original order.
func FilterItems(items []menu.Item, query string) []menu.Item {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return CloneItems(items)
	}
	matches := make(map[int]struct{}, len(items))
	for _, rank := range fuzzy.RankFindNormalizedFold(trimmed, labels(items)) {
		matches[rank.OriginalIndex] = struct{}{}
	}
	for _, rank := range fuzzy.RankFindNormalizedFold(trimmed, ids(items)) {
		matches[rank.OriginalIndex] = struct{}{}
	}
	filtered := make([]menu.Item, 0, len(matches))
	for i, item := range items {
		if _, ok := matches[i]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// BestMatchIndex picks the item the cursor should land on for query: an
// exact match, then a prefix match, then the closest fuzzy match.
func BestMatchIndex(items []menu.Item, query string) int {
	if len(items) == 0 {
		return -1
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return 0
	}
	for i, item := range items {
		if strings.EqualFold(item.Label, trimmed) || strings.EqualFold(item.ID, trimmed) {
			return i
		}
	}
	lower := strings.ToLower(trimmed)
	for i, item := range items {
		if strings.HasPrefix(strings.ToLower(item.Label), lower) || strings.HasPrefix(strings.ToLower(item.ID), lower) {
			return i
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels(items))
	if len(ranks) == 0 {
		return 0
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance || (rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex) {
			best = rank
		}
	}
	return best.OriginalIndex
}

func labels(items []menu.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func ids(items []menu.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
