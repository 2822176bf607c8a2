package menu

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	writeClipboard       = clipboard.WriteAll
	clipboardUnsupported = func() bool { return clipboard.Unsupported }
)

func CopyURLAction(ctx Context, item Item) tea.Cmd {
	url := strings.TrimSpace(ctx.SearchURL)
	if url == "" {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("nothing to copy")} }
	}
	return func() tea.Msg {
		if clipboardUnsupported() {
			return ActionResult{Err: fmt.Errorf("no clipboard utility available")}
		}
		if err := writeClipboard(url); err != nil {
			return ActionResult{Err: fmt.Errorf("copy %s: %w", url, err)}
		}
		return ActionResult{Info: "Copied " + url}
	}
}
