package main

import (
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/app"
	"github.com/atomicstack/tag-popup-control/internal/config"
)

func TestProbeTerminalNamesDescriptors(t *testing.T) {
	info := probeTerminal()
	if info.Input.Name != "stdin" || info.Output.Name != "stdout" {
		t.Fatalf("unexpected descriptor names %q %q", info.Input.Name, info.Output.Name)
	}
}

func TestInteractiveNeedsBothDescriptors(t *testing.T) {
	info := terminalInfo{Input: descriptor{IsTerminal: true}}
	if info.Interactive() {
		t.Fatalf("expected non-interactive without a terminal on stdout")
	}
	info.Output.IsTerminal = true
	if !info.Interactive() {
		t.Fatalf("expected interactive with both descriptors on a terminal")
	}
}

func TestStartupTracePayloadIncludesFlags(t *testing.T) {
	cfg := config.Config{
		App: app.Config{
			DBPath:     "state.db",
			Site:       "https://example.test",
			Locale:     "en",
			Width:      80,
			Height:     24,
			ShowFooter: true,
			Verbose:    true,
		},
		Logging: config.Logging{
			FilePath: "trace.log",
			Trace:    true,
		},
		Flags: map[string]string{
			"db":      "state.db",
			"site":    "https://example.test",
			"width":   "80",
			"height":  "24",
			"footer":  "true",
			"verbose": "true",
		},
		Args: []string{"--db", "state.db"},
	}

	payload := startupTracePayload(cfg, terminalInfo{})

	flagsValue, ok := payload["flags"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected flags map in payload")
	}
	if flagsValue["db"] != "state.db" {
		t.Fatalf("expected db flag %q, got %v", "state.db", flagsValue["db"])
	}
	if flagsValue["site"] != "https://example.test" {
		t.Fatalf("expected site flag, got %v", flagsValue["site"])
	}
	if flagsValue["width"] != "80" {
		t.Fatalf("expected width 80, got %v", flagsValue["width"])
	}
	if flagsValue["footer"] != "true" {
		t.Fatalf("expected footer flag true, got %v", flagsValue["footer"])
	}
	if flagsValue["trace"] != true {
		t.Fatalf("expected trace flag true, got %v", flagsValue["trace"])
	}
	if flagsValue["logFile"] != "trace.log" {
		t.Fatalf("expected log file trace.log, got %v", flagsValue["logFile"])
	}

	if _, ok := payload["terminal"].(terminalInfo); !ok {
		t.Fatalf("expected terminal details in payload")
	}
	sources, ok := payload["sources"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected sources in payload")
	}
	if sources["db"] != "state.db" || sources["autocomplete"] != false {
		t.Fatalf("unexpected sources %v", sources)
	}
	cfgValue, ok := payload["config"].(config.Config)
	if !ok {
		t.Fatalf("expected config in payload")
	}
	if cfgValue.App.DBPath != cfg.App.DBPath || cfgValue.App.Width != cfg.App.Width {
		t.Fatalf("expected app config %#v, got %#v", cfg.App, cfgValue.App)
	}
}
