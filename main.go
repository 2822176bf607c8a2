package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atomicstack/tag-popup-control/internal/app"
	"github.com/atomicstack/tag-popup-control/internal/config"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("tag-popup-control needs a terminal on stdin and stdout")

func main() {
	cfg := config.MustLoad()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(cfg.Logging.FilePath)
	logging.SetTraceEnabled(cfg.Logging.Trace)

	terminal := probeTerminal()
	events.App.Start(startupTracePayload(cfg, terminal))
	if !terminal.Interactive() {
		logging.Error(errNoTerminal)
		fmt.Fprintf(os.Stderr, "Error: %v\n", errNoTerminal)
		os.Exit(1)
	}

	if err := app.Run(cfg.App); err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// startupTracePayload records what the popup starts with: its flags, the
// state database and remote endpoints in use, and the terminal it found.
func startupTracePayload(cfg config.Config, terminal terminalInfo) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags)+2)
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	payload := map[string]interface{}{
		"argv":   cfg.Args,
		"flags":  flags,
		"config": cfg,
		"sources": map[string]interface{}{
			"db":           cfg.App.DBPath,
			"site":         cfg.App.Site,
			"autocomplete": cfg.App.AutocompleteURL != "",
			"translate":    cfg.App.TranslateURL != "",
			"target":       cfg.App.Target,
		},
		"terminal": terminal,
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	}
	return payload
}

// terminalInfo describes the descriptors Bubble Tea reads keys and mouse
// reports from and draws to.
type terminalInfo struct {
	Input  descriptor `json:"input"`
	Output descriptor `json:"output"`
}

type descriptor struct {
	Name       string `json:"name"`
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Interactive reports whether both keys and drawing go through a terminal.
func (t terminalInfo) Interactive() bool {
	return t.Input.IsTerminal && t.Output.IsTerminal
}

func probeTerminal() terminalInfo {
	return terminalInfo{
		Input:  probe("stdin", os.Stdin),
		Output: probe("stdout", os.Stdout),
	}
}

func probe(name string, f *os.File) descriptor {
	d := descriptor{Name: name}
	if f == nil {
		return d
	}
	fd := int(f.Fd())
	if fd < 0 || !term.IsTerminal(fd) {
		return d
	}
	d.IsTerminal = true
	width, height, err := term.GetSize(fd)
	if err != nil {
		d.Error = err.Error()
		return d
	}
	d.Width, d.Height = width, height
	return d
}
