package navigate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/tag-popup-control/internal/logging"
)

func quietLogs(t *testing.T) {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { logging.Configure("") })
}

func TestBuildSearchURL(t *testing.T) {
	n, err := New("https://example.net/base", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := n.BuildSearchURL("  cat  -dog ")
	want := "https://example.net/base/tags/cat%20-dog/artworks"
	if got != want {
		t.Fatalf("BuildSearchURL = %q, want %q", got, want)
	}
	if got := n.BuildSearchURL("a/b"); !strings.Contains(got, "a%2Fb") {
		t.Fatalf("expected slash to be escaped, got %q", got)
	}
}

func TestNewDefaultsAndRejectsRelative(t *testing.T) {
	n, err := New("", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !strings.HasPrefix(n.BuildSearchURL("cat"), DefaultSite) {
		t.Fatalf("expected default site")
	}
	if _, err := New("example.net", ""); err == nil {
		t.Fatalf("expected relative site to be rejected")
	}
}

func TestNavigateHistory(t *testing.T) {
	quietLogs(t)
	n, _ := New("", "")
	ctx := context.Background()
	n.Navigate(ctx, "one", true)
	n.Navigate(ctx, "two", true)
	n.Navigate(ctx, "three", false)

	if n.Current() != "three" || n.Depth() != 1 {
		t.Fatalf("unexpected state current=%q depth=%d", n.Current(), n.Depth())
	}
	back, ok := n.Back()
	if !ok || back != "one" {
		t.Fatalf("Back = %q %v", back, ok)
	}
	if _, ok := n.Back(); ok {
		t.Fatalf("expected empty history")
	}
}

func TestNavigateRunsOpenCommand(t *testing.T) {
	quietLogs(t)
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	out := filepath.Join(t.TempDir(), "opened")
	script := filepath.Join(t.TempDir(), "open.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nprintf '%s' \"$1\" > "+out+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	n, _ := New("", script)
	if err := n.Navigate(context.Background(), "https://example.net/x", true); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(out); err == nil && string(data) == "https://example.net/x" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("open command never ran")
}
