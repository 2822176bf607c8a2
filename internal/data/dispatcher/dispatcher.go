// Package dispatcher decides which overlays must repopulate after a backend
// event.
package dispatcher

import (
	"context"

	"github.com/atomicstack/tag-popup-control/internal/backend"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
)

// SearchBox is the part of the search box the dispatcher drives.
type SearchBox interface {
	BeginRefresh(event searchbox.Event) []func() overlay.Result
}

// Editor is the part of the bookmark editor the dispatcher drives.
type Editor interface {
	BeginRefresh(ctx context.Context) func() overlay.Result
}

type Result struct {
	// Refreshes are repopulations to run off the UI goroutine.
	Refreshes       []func() overlay.Result
	SettingsChanged bool
	Setting         string
}

type Dispatcher struct {
	ctx    context.Context
	box    SearchBox
	editor Editor
}

func New(ctx context.Context, box SearchBox, editor Editor) *Dispatcher {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Dispatcher{ctx: ctx, box: box, editor: editor}
}

func (d *Dispatcher) Handle(evt backend.Event) Result {
	var res Result
	switch evt.Kind {
	case backend.KindAutocomplete:
		if d.box != nil {
			res.Refreshes = d.box.BeginRefresh(searchbox.AutocompleteUpdated)
		}
	case backend.KindSearchHistory:
		if d.box != nil {
			res.Refreshes = d.box.BeginRefresh(searchbox.HistoryChanged)
		}
	case backend.KindBookmarkHistory:
		if d.editor != nil {
			if run := d.editor.BeginRefresh(d.ctx); run != nil {
				res.Refreshes = append(res.Refreshes, run)
			}
		}
	case backend.KindSettings:
		res.SettingsChanged = true
		res.Setting = evt.Key
	}
	return res
}
