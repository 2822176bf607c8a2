package state

// MoveCursor moves the cursor by delta, wrapping around either end.
func (l *Level) MoveCursor(delta int) bool {
	n := len(l.Items)
	if n == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	next := (l.Cursor + delta) % n
	if next < 0 {
		next += n
	}
	l.Cursor = next
	return l.Cursor != old
}

// SetCursor puts the cursor on index i when it is in range.
func (l *Level) SetCursor(i int) bool {
	if i < 0 || i >= len(l.Items) || i == l.Cursor {
		return false
	}
	l.Cursor = i
	return true
}

// MoveCursorHome moves the cursor to the first item.
func (l *Level) MoveCursorHome() bool {
	return l.clampTo(0)
}

// MoveCursorEnd moves the cursor to the last item.
func (l *Level) MoveCursorEnd() bool {
	return l.clampTo(len(l.Items) - 1)
}

// MoveCursorPageUp moves the cursor up one page without wrapping.
func (l *Level) MoveCursorPageUp(maxVisible int) bool {
	return l.clampTo(l.Cursor - l.pageSize(maxVisible))
}

// MoveCursorPageDown moves the cursor down one page without wrapping.
func (l *Level) MoveCursorPageDown(maxVisible int) bool {
	return l.clampTo(l.Cursor + l.pageSize(maxVisible))
}

func (l *Level) clampTo(i int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor = min(max(i, 0), len(l.Items)-1)
	return l.Cursor != old
}

func (l *Level) pageSize(maxVisible int) int {
	if maxVisible <= 0 || maxVisible > len(l.Items) {
		return max(len(l.Items), 1)
	}
	return maxVisible
}

// EnsureCursorVisible clamps the cursor and scrolls the viewport so that it
// shows the cursor.
func (l *Level) EnsureCursorVisible(maxVisible int) {
	n := len(l.Items)
	if n == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	l.Cursor = min(max(l.Cursor, 0), n-1)
	if maxVisible <= 0 || maxVisible >= n {
		l.ViewportOffset = 0
		return
	}
	maxOffset := n - maxVisible
	l.ViewportOffset = min(max(l.ViewportOffset, 0), maxOffset)
	if l.Cursor < l.ViewportOffset {
		l.ViewportOffset = l.Cursor
	}
	if l.Cursor >= l.ViewportOffset+maxVisible {
		l.ViewportOffset = l.Cursor - maxVisible + 1
	}
}

// Visible returns the items inside the viewport and the index of the first.
func (l *Level) Visible(maxVisible int) ([]Row, int) {
	l.EnsureCursorVisible(maxVisible)
	start := l.ViewportOffset
	end := len(l.Items)
	if maxVisible > 0 && start+maxVisible < end {
		end = start + maxVisible
	}
	out := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, Row{Item: l.Items[i], Selected: i == l.Cursor})
	}
	return out, start
}
