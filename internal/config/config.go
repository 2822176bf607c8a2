package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atomicstack/tag-popup-control/internal/app"
	"github.com/atomicstack/tag-popup-control/internal/navigate"
)

// Config captures runtime configuration for the application.
type Config struct {
	App      app.Config
	Logging  Logging
	Features Features
	Flags    map[string]string
	Args     []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

type Features struct {
	Verbose bool
}

const envPrefix = "TAG_POPUP_CONTROL_"

const (
	envDB              = envPrefix + "DB"
	envSite            = envPrefix + "SITE"
	envAutocompleteURL = envPrefix + "AUTOCOMPLETE_URL"
	envTranslateURL    = envPrefix + "TRANSLATE_URL"
	envLocale          = envPrefix + "LOCALE"
	envWidth           = envPrefix + "WIDTH"
	envHeight          = envPrefix + "HEIGHT"
	envToggleMode      = envPrefix + "TOGGLE_MODE"
	envInvertHotkey    = envPrefix + "INVERT_POPUP_HOTKEY"
	envOpenCommand     = envPrefix + "OPEN_COMMAND"
	envTarget          = envPrefix + "TARGET"
	envTargetTitle     = envPrefix + "TARGET_TITLE"
	envTargetTags      = envPrefix + "TARGET_TAGS"
	envShowFooter      = envPrefix + "FOOTER"
	envVerbose         = envPrefix + "VERBOSE"
	envTrace           = envPrefix + "TRACE"
	envLogFile         = envPrefix + "LOG_FILE"
)

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("tag-popup-control", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	db := fs.String("db", envOrDefault(env, envDB, defaultDBPath()), "path to the SQLite database")
	site := fs.String("site", envOrDefault(env, envSite, navigate.DefaultSite), "base URL that search URLs are built under")
	autocompleteURL := fs.String("autocomplete-url", envOrDefault(env, envAutocompleteURL, ""), "tag autocomplete endpoint (empty disables autocomplete)")
	translateURL := fs.String("translate-url", envOrDefault(env, envTranslateURL, ""), "tag translation endpoint (empty uses cached translations only)")
	locale := fs.String("locale", envOrDefault(env, envLocale, "en"), "locale for tag translations and sorting")
	width := fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	toggleMode := fs.Bool("toggle-mode", envOrBool(env, envToggleMode, false), "open and close the context menu with a click instead of press-and-hold")
	invertHotkey := fs.Bool("invert-popup-hotkey", envOrBool(env, envInvertHotkey, false), "open the context menu only while the modifier is held")
	openCommand := fs.String("open-command", envOrDefault(env, envOpenCommand, ""), "command run with each navigated URL (empty only records it)")
	target := fs.String("target", envOrDefault(env, envTarget, ""), "ID of the work the popup was opened for")
	targetTitle := fs.String("target-title", envOrDefault(env, envTargetTitle, ""), "title of the target work")
	targetTags := fs.String("target-tags", envOrDefault(env, envTargetTags, ""), "space-separated tags of the target work")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, false), "enable footer hint row (disabled by default)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	verbose := fs.Bool("verbose", envOrBool(env, envVerbose, false), "print success messages for actions")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		App: app.Config{
			DBPath:          *db,
			Site:            *site,
			AutocompleteURL: *autocompleteURL,
			TranslateURL:    *translateURL,
			Locale:          *locale,
			Width:           *width,
			Height:          *height,
			ToggleMode:      *toggleMode,
			InvertHotkey:    *invertHotkey,
			OpenCommand:     *openCommand,
			Target:          *target,
			TargetTitle:     *targetTitle,
			TargetTags:      strings.Fields(*targetTags),
			ShowFooter:      *footer,
			Verbose:         *verbose,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Features: Features{
			Verbose: *verbose,
		},
		Flags: map[string]string{
			"db":                *db,
			"site":              *site,
			"autocompleteURL":   *autocompleteURL,
			"translateURL":      *translateURL,
			"locale":            *locale,
			"width":             strconv.Itoa(*width),
			"height":            strconv.Itoa(*height),
			"toggleMode":        strconv.FormatBool(*toggleMode),
			"invertPopupHotkey": strconv.FormatBool(*invertHotkey),
			"openCommand":       *openCommand,
			"target":            *target,
			"footer":            strconv.FormatBool(*footer),
			"trace":             strconv.FormatBool(*trace),
			"verbose":           strconv.FormatBool(*verbose),
			"logFile":           *logFile,
		},
		Args: append([]string(nil), args...),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tag-popup-control.db"
	}
	return filepath.Join(dir, "tag-popup-control", "state.db")
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate rejects values the application cannot start with.
func Validate(cfg Config) error {
	if cfg.App.Width < 0 {
		return fmt.Errorf("width must be >= 0 (got %d)", cfg.App.Width)
	}
	if cfg.App.Height < 0 {
		return fmt.Errorf("height must be >= 0 (got %d)", cfg.App.Height)
	}
	if strings.TrimSpace(cfg.App.DBPath) == "" {
		return fmt.Errorf("db path must not be empty")
	}
	for name, endpoint := range map[string]string{
		"autocomplete-url": cfg.App.AutocompleteURL,
		"translate-url":    cfg.App.TranslateURL,
	} {
		if endpoint == "" {
			continue
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q must be an absolute URL", name, endpoint)
		}
	}
	return nil
}
