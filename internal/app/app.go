package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/tag-popup-control/internal/autocomplete"
	"github.com/atomicstack/tag-popup-control/internal/backend"
	"github.com/atomicstack/tag-popup-control/internal/bookmark"
	"github.com/atomicstack/tag-popup-control/internal/history"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"github.com/atomicstack/tag-popup-control/internal/navigate"
	"github.com/atomicstack/tag-popup-control/internal/overlay"
	"github.com/atomicstack/tag-popup-control/internal/searchbox"
	"github.com/atomicstack/tag-popup-control/internal/settings"
	"github.com/atomicstack/tag-popup-control/internal/state"
	"github.com/atomicstack/tag-popup-control/internal/store"
	"github.com/atomicstack/tag-popup-control/internal/translate"
	"github.com/atomicstack/tag-popup-control/internal/ui"
)

// bridgeInterval spaces deliveries of one kind of change to the UI.
const bridgeInterval = 50 * time.Millisecond

// Config describes user-provided application options.
type Config struct {
	DBPath          string
	Site            string
	AutocompleteURL string
	TranslateURL    string
	Locale          string
	Width           int
	Height          int
	ToggleMode      bool
	InvertHotkey    bool
	OpenCommand     string
	Target          string
	TargetTitle     string
	TargetTags      []string
	ShowFooter      bool
	Verbose         bool
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	program := tea.NewProgram(rt.model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		events.App.Stop("killed")
		return nil
	}
	events.App.Stop("quit")
	return err
}

// runtime holds everything one popup session owns.
type runtime struct {
	store  *store.Store
	bridge *backend.Bridge
	box    *searchbox.Box
	editor *bookmark.Editor
	model  *ui.Model
	unsubs []func()
}

func newRuntime(ctx context.Context, cfg Config) (*runtime, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt := &runtime{store: st}

	prefs, err := settings.Load(ctx, st)
	if err != nil {
		rt.close()
		return nil, err
	}
	if err := seedSettings(prefs, cfg); err != nil {
		rt.close()
		return nil, err
	}
	nav, err := navigate.New(cfg.Site, cfg.OpenCommand)
	if err != nil {
		rt.close()
		return nil, err
	}

	recents := history.New(st)
	var fetcher translate.Fetcher
	if cfg.TranslateURL != "" {
		fetcher = translate.NewHTTPFetcher(cfg.TranslateURL)
	}
	translator := translate.New(st, fetcher)
	var complete autocomplete.Client
	if cfg.AutocompleteURL != "" {
		complete = autocomplete.NewHTTPClient(cfg.AutocompleteURL)
	}

	rt.bridge = backend.NewBridge(bridgeInterval)
	view := overlay.NewViewHidden()
	rt.box = searchbox.New(searchbox.Config{
		Context:      ctx,
		History:      recents,
		Translator:   translator,
		Locale:       cfg.Locale,
		Autocomplete: complete,
		Settings:     prefs,
		Navigator:    nav,
		ViewHidden:   view,
		Notify: func(evt searchbox.Event) {
			rt.bridge.Notify(backend.Event{Kind: kindFor(evt)})
		},
	})
	rt.unsubs = append(rt.unsubs, recents.Subscribe(history.BookmarkTags, rt.bridge.NotifyFunc(backend.KindBookmarkHistory)))
	for _, key := range []string{settings.TouchpadMode, settings.InvertPopupHotkey} {
		rt.unsubs = append(rt.unsubs, prefs.Subscribe(key, func(string) {
			rt.bridge.Notify(backend.Event{Kind: backend.KindSettings, Key: key})
		}))
	}

	rt.editor = bookmark.NewEditor(bookmark.StoreBookmarks{Store: st}, recents, translator, cfg.Locale)
	targets := state.NewTargetStore()
	if cfg.Target != "" {
		targets.SetCurrent(state.Target{ID: cfg.Target, Title: cfg.TargetTitle, Tags: cfg.TargetTags})
	}

	rt.model = ui.NewModel(ui.Deps{
		Context:    ctx,
		Box:        rt.box,
		Editor:     rt.editor,
		Settings:   prefs,
		Bridge:     rt.bridge,
		Targets:    targets,
		URLs:       nav,
		ViewHidden: view,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ShowFooter: cfg.ShowFooter,
		Verbose:    cfg.Verbose,
	})
	return rt, nil
}

// seedSettings stores flag values the user has not changed at runtime yet.
func seedSettings(prefs *settings.Store, cfg Config) error {
	seeds := map[string]bool{
		settings.TouchpadMode:      cfg.ToggleMode,
		settings.InvertPopupHotkey: cfg.InvertHotkey,
	}
	for key, on := range seeds {
		if !on {
			continue
		}
		if err := prefs.Seed(key, "true"); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	return nil
}

func kindFor(evt searchbox.Event) backend.Kind {
	if evt == searchbox.HistoryChanged {
		return backend.KindSearchHistory
	}
	return backend.KindAutocomplete
}

func (rt *runtime) close() {
	if rt.model != nil {
		rt.model.Close()
	}
	if rt.editor != nil {
		if err := rt.editor.HideAndSave(context.Background()); err != nil {
			logging.Error(err)
		}
	}
	if rt.box != nil {
		rt.box.Close()
	}
	for _, fn := range rt.unsubs {
		fn()
	}
	if rt.bridge != nil {
		rt.bridge.Stop()
		rt.bridge.Wait()
	}
	if err := rt.store.Close(); err != nil {
		logging.Error(err)
	}
}
