// Package table lays out rows of cells in aligned columns measured in
// terminal cells, so wide (CJK) tag translations line up.
package table

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Format returns the rows padded according to the widest entry in each
// column. Rows may be ragged; missing cells count as empty.
func Format(rows [][]string, alignments []Alignment) []string {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	widths := make([]int, colCount)
	for _, row := range rows {
		for c, cell := range row {
			widths[c] = max(widths[c], Width(cell))
		}
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for c := 0; c < colCount; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			if c > 0 {
				b.WriteString("  ")
			}
			pad := widths[c] - Width(cell)
			last := c == colCount-1
			if c < len(alignments) && alignments[c] == AlignRight {
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
				b.WriteString(cell)
			} else {
				b.WriteString(cell)
				if !last {
					b.WriteString(strings.Repeat(" ", max(pad, 0)))
				}
			}
		}
		out[i] = b.String()
	}
	return out
}

// Width returns the display width of text in terminal cells.
func Width(text string) int {
	return runewidth.StringWidth(text)
}

// Fit truncates text to width cells with a trailing ellipsis, or pads it
// with spaces to exactly width.
func Fit(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if Width(text) > width {
		return runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillRight(text, width)
}
