package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Loading               *lipgloss.Style
	Item                  *lipgloss.Style
	ItemIndicator         *lipgloss.Style
	SelectedItemIndicator *lipgloss.Style
	SelectedItem          *lipgloss.Style
	// HistoryItem marks recent searches, AutocompleteItem live suggestions.
	HistoryItem      *lipgloss.Style
	AutocompleteItem *lipgloss.Style
	Translation      *lipgloss.Style
	Operator         *lipgloss.Style
	Highlight        *lipgloss.Style
	Active           *lipgloss.Style
	Remove           *lipgloss.Style
	Error            *lipgloss.Style
	Info             *lipgloss.Style
	Header           *lipgloss.Style
	Footer           *lipgloss.Style
	Prompt           *lipgloss.Style
	Placeholder      *lipgloss.Style
	Cursor           *lipgloss.Style
	Menu             *lipgloss.Style
	MenuHint         *lipgloss.Style
}

var defaultStyles = Styles{
	Loading: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true),
	),
	Item: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	ItemIndicator: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	SelectedItemIndicator: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("238")),
	),
	SelectedItem: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true),
	),
	HistoryItem: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	AutocompleteItem: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	),
	Translation: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("180")),
	),
	Operator: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	),
	Highlight: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	Active: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	),
	Remove: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Prompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	Placeholder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	Cursor: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33")),
	),
	Menu: ptr(
		lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
	),
	MenuHint: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

// Render applies style when it is set.
func Render(style *lipgloss.Style, text string) string {
	if style == nil || text == "" {
		return text
	}
	return style.Render(text)
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
