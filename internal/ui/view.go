package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/atomicstack/tag-popup-control/internal/format/table"
	"github.com/atomicstack/tag-popup-control/internal/menu"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/theme"
)

const (
	infoTTL    = 5 * time.Second
	indicator  = "▌ "
	removeMark = " ✕"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // text contains ANSI escapes; skip style wrapping, use ANSI-aware truncation
}

// View renders the popup. Clickable rows are recorded for the mouse
// handler as they are drawn.
func (m *Model) View() string {
	m.hits = m.hits[:0]
	lines := make([]styledLine, 0, 16)
	switch m.focus {
	case FocusEditor, FocusPrompt:
		lines = m.appendEditor(lines)
	default:
		lines = append(lines, styledLine{text: m.input.View(), raw: true})
		lines = m.appendSearchOverlay(lines)
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if m.showFooter {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: footerText(), style: styles.Footer})
	}
	lines = limitHeight(lines, m.height-1, m.width)
	lines = append(lines, m.statusLine())
	lines = applyWidth(lines, m.width)
	return strings.Join(m.compositeMenu(renderLines(lines)), "\n")
}

func (m *Model) appendSearchOverlay(lines []styledLine) []styledLine {
	active := m.box.Active()
	if active == nil {
		return lines
	}
	entries := active.Entries()
	if len(entries) == 0 {
		if active.State() == overlay.Showing {
			return append(lines, styledLine{text: "Loading…", style: styles.Loading})
		}
		msg := "No recent searches"
		if active == m.box.Edit() {
			msg = "No recent tags"
		}
		return append(lines, styledLine{text: msg, style: styles.Info})
	}
	width := m.box.Width()
	if m.width > 0 {
		width = min(width, m.width)
	}
	selected, hasSelection := active.Selection().Index()
	if !hasSelection {
		selected = -1
	}
	edit := active == m.box.Edit()
	start, end := window(len(entries), selected, m.maxVisibleItems())
	for i := start; i < end; i++ {
		entry := entries[i]
		hit := rowHit{kind: hitDropdown, index: i, y: len(lines), removeX: -1}
		removable := !edit && entry.Source == overlay.SourceHistory
		var line string
		if edit {
			hit.kind = hitEdit
			line = m.editRow(entry, i == selected, width)
		} else {
			line = m.dropdownRow(entry, i == selected, removable, width)
			if removable {
				hit.removeX = width - table.Width(removeMark)
			}
		}
		m.hits = append(m.hits, hit)
		lines = append(lines, styledLine{text: line, raw: true})
	}
	return lines
}

func (m *Model) dropdownRow(entry overlay.Entry, selected, removable bool, width int) string {
	base, mark := rowStyles(selected)
	body := width - table.Width(indicator)
	suffix := ""
	if removable {
		body -= table.Width(removeMark)
		suffix = theme.Render(styles.Remove, removeMark)
	}
	return theme.Render(mark, indicator) + renderWords(entry, base, body) + suffix
}

func (m *Model) editRow(entry overlay.Entry, selected bool, width int) string {
	base, mark := rowStyles(selected)
	if m.box.Highlighted(entry.Key) && !selected {
		base = styles.Highlight
	}
	return theme.Render(mark, indicator) + renderWords(entry, base, width-table.Width(indicator))
}

func rowStyles(selected bool) (base, mark *lipgloss.Style) {
	if selected {
		return styles.SelectedItem, styles.SelectedItemIndicator
	}
	return styles.Item, styles.ItemIndicator
}

// renderWords draws an entry's words in width cells: operators and
// translated words get their own style. A label that does not fit, or a
// translation of the whole expression, is drawn as one piece.
func renderWords(entry overlay.Entry, base *lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	labels := make([]string, len(entry.Words))
	for i, w := range entry.Words {
		labels[i] = w.Label
	}
	plain := strings.Join(labels, " ")
	if len(entry.Words) == 0 || plain != entry.Label {
		style := base
		if len(entry.Words) > 0 && base == styles.Item {
			style = styles.Translation
		}
		return theme.Render(style, table.Fit(entry.Label, width))
	}
	if table.Width(plain) > width {
		return theme.Render(base, table.Fit(plain, width))
	}
	parts := make([]string, len(entry.Words))
	for i, w := range entry.Words {
		style := base
		switch {
		case w.Operator:
			style = styles.Operator
		case w.Translated:
			style = styles.Translation
		}
		parts[i] = theme.Render(style, w.Label)
	}
	pad := strings.Repeat(" ", width-table.Width(plain))
	return strings.Join(parts, theme.Render(base, " ")) + theme.Render(base, pad)
}

func (m *Model) appendEditor(lines []styledLine) []styledLine {
	lines = append(lines, styledLine{text: "Bookmark tags · " + m.editorTarget.Label(), style: styles.Header})
	lvl := m.editorLevel
	if lvl == nil {
		return lines
	}
	if lvl.Filter != "" {
		lines = append(lines, styledLine{text: "/ " + lvl.Filter, style: styles.Info})
	}
	if len(lvl.Items) == 0 {
		switch {
		case m.editor != nil && m.editor.Overlay().State() == overlay.Showing:
			lines = append(lines, styledLine{text: "Loading…", style: styles.Loading})
		case lvl.Filter != "":
			lines = append(lines, styledLine{text: fmt.Sprintf("No matches for %q", lvl.Filter), style: styles.Info})
		default:
			lines = append(lines, styledLine{text: "No tags yet", style: styles.Info})
		}
	}
	rows, start := lvl.Visible(m.maxVisibleItems())
	for i, row := range rows {
		base, mark := rowStyles(row.Selected)
		box := "[ ] "
		boxStyle := base
		if m.editor != nil && m.editor.Active(row.ID) {
			box = "[✓] "
			boxStyle = styles.Active
		}
		text := theme.Render(mark, indicator) + theme.Render(boxStyle, box) + theme.Render(base, row.Label)
		m.hits = append(m.hits, rowHit{kind: hitEditor, index: start + i, y: len(lines), removeX: -1})
		lines = append(lines, styledLine{text: text, raw: true})
	}
	if m.focus == FocusPrompt {
		lines = append(lines, styledLine{text: m.prompt.View(), raw: true})
	}
	return lines
}

func (m *Model) statusLine() styledLine {
	switch {
	case m.errMsg != "":
		return styledLine{text: "Error: " + m.errMsg, style: styles.Error}
	case m.menu.visible && m.menu.pendingID != "":
		return styledLine{text: "Loading…", style: styles.Loading}
	case m.menu.visible:
		if lvl := m.menu.current(); lvl != nil && lvl.Filter != "" {
			return styledLine{text: "/ " + lvl.Filter, style: styles.Info}
		}
	}
	return styledLine{}
}

func footerText() string {
	bindings := menu.Bindings()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Key)
	}
	return strings.Join(parts, " · ")
}

// compositeMenu draws the context menu over lines at its anchor, keeping
// the part of each line left of the menu.
func (m *Model) compositeMenu(rendered string) []string {
	lines := strings.Split(rendered, "\n")
	lvl := m.menu.current()
	if !m.menu.visible || lvl == nil {
		m.menuRect = rect{}
		return lines
	}
	rows, _ := lvl.Visible(m.maxVisibleItems())
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{row.Label, row.Hint}
	}
	formatted := table.Format(cells, []table.Alignment{table.AlignLeft, table.AlignRight})
	body := make([]string, len(rows))
	for i, row := range rows {
		base, mark := rowStyles(row.Selected)
		body[i] = theme.Render(mark, indicator) + theme.Render(base, formatted[i])
	}
	if len(body) == 0 {
		body = []string{theme.Render(styles.Info, "(no entries)")}
	}
	box := strings.Split(styles.Menu.Render(strings.Join(body, "\n")), "\n")
	w, h := lipgloss.Width(box[0]), len(box)

	left, top := m.menu.x, m.menu.y
	if m.width > 0 {
		left = min(left, m.width-w)
	}
	if m.height > 0 {
		top = min(top, m.height-h)
	}
	left, top = max(left, 0), max(top, 0)
	m.menuRect = rect{top: top, left: left, w: w, h: h}

	for len(lines) < top+h {
		lines = append(lines, "")
	}
	for i, boxLine := range box {
		base := truncate.String(lines[top+i], uint(left))
		if pad := left - lipgloss.Width(base); pad > 0 {
			base += strings.Repeat(" ", pad)
		}
		lines[top+i] = base + boxLine
	}
	return lines
}

// window returns the slice of n rows to draw so that sel stays visible.
func window(n, sel, limit int) (int, int) {
	if limit <= 0 || n <= limit {
		return 0, n
	}
	start := 0
	if sel >= limit {
		start = sel - limit + 1
	}
	return start, min(n, start+limit)
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncViewport(m.editorLevel)
	m.syncViewport(m.menu.current())
	return nil
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(infoTTL)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			if lipgloss.Width(text) > width {
				text = truncate.StringWithTail(text, uint(width-1), "…")
			}
		} else {
			text = truncateText(text, width)
		}
		line.text = text
		result[i] = line
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if line.raw {
			out[i] = line.text
			continue
		}
		out[i] = theme.Render(line.style, line.text)
	}
	return strings.Join(out, "\n")
}

func truncateText(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
