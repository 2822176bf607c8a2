// Package navigate turns search expressions into URLs and opens them.
package navigate

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/logging"
)

// DefaultSite is used when no site is configured.
const DefaultSite = "https://www.pixiv.net"

// Navigator builds search URLs below a site and records where it went.
type Navigator struct {
	base        *url.URL
	openCommand []string

	mu      sync.Mutex
	current string
	visited []string
}

// New creates a Navigator for site. openCommand, when not empty, is run with
// the URL appended as its last argument on every navigation.
func New(site, openCommand string) (*Navigator, error) {
	if strings.TrimSpace(site) == "" {
		site = DefaultSite
	}
	base, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("parse site %q: %w", site, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site %q must be an absolute URL", site)
	}
	return &Navigator{base: base, openCommand: strings.Fields(openCommand)}, nil
}

// BuildSearchURL returns the search page for a tag expression.
func (n *Navigator) BuildSearchURL(expr string) string {
	expr = strings.Join(strings.Fields(expr), " ")
	u := *n.base
	prefix := strings.TrimSuffix(n.base.Path, "/")
	rawPrefix := strings.TrimSuffix(n.base.EscapedPath(), "/")
	u.Path = prefix + "/tags/" + expr + "/artworks"
	u.RawPath = rawPrefix + "/tags/" + url.PathEscape(expr) + "/artworks"
	return u.String()
}

// Navigate makes url the current page. With addToHistory the previous page
// is kept so the move can be undone; otherwise the current page is replaced.
func (n *Navigator) Navigate(ctx context.Context, target string, addToHistory bool) error {
	n.mu.Lock()
	if addToHistory && n.current != "" {
		n.visited = append(n.visited, n.current)
	}
	n.current = target
	n.mu.Unlock()

	logging.Info("navigate", "url", target, "history", addToHistory)
	if len(n.openCommand) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	args := append(append([]string(nil), n.openCommand[1:]...), target)
	// the opener outlives the request that started it
	cmd := exec.Command(n.openCommand[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	go cmd.Wait()
	return nil
}

// Current returns the URL of the last navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Back returns to the previous page, if any.
func (n *Navigator) Back() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.visited) == 0 {
		return "", false
	}
	last := n.visited[len(n.visited)-1]
	n.visited = n.visited[:len(n.visited)-1]
	n.current = last
	return last, true
}

// Depth returns how many pages Back can return to.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.visited)
}
