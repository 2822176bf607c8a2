package overlay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/atomicstack/tag-popup-control/internal/autocomplete"
	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
	"github.com/atomicstack/tag-popup-control/internal/search"
)

// HistorySource is the recent-list collaborator.
type HistorySource interface {
	Recent(ctx context.Context, kind string) ([]string, error)
}

// Translator looks up display labels for tags. Missing keys are simply
// absent from the returned map.
type Translator interface {
	Translations(ctx context.Context, keys []string, locale string) (map[string]string, error)
}

// DropdownBuilder populates the live search dropdown: autocomplete
// candidates first, in the order the endpoint returned them, then recent
// searches, most recent first.
type DropdownBuilder struct {
	Name         string
	History      HistorySource
	Kind         string
	Translator   Translator
	Locale       string
	Autocomplete func() []autocomplete.Candidate
}

// Build implements Builder.
func (b DropdownBuilder) Build(ctx context.Context) ([]Entry, error) {
	var candidates []autocomplete.Candidate
	if b.Autocomplete != nil {
		candidates = b.Autocomplete()
	}

	recent := recentSnapshot(ctx, b.Name, b.History, b.Kind)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys := search.DistinctTags(recent, true)
	for _, c := range candidates {
		keys = append(keys, c.Tag)
	}
	translations := lookup(ctx, b.Name, b.Translator, keys, b.Locale)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(candidates)+len(recent))
	for _, c := range candidates {
		label := c.Label
		if label == "" {
			label = translations[c.Tag]
		}
		if label == "" {
			label = c.Tag
		}
		entries = append(entries, Entry{
			Key:    c.Tag,
			Label:  label,
			Source: SourceAutocomplete,
			Words:  []Word{{Tag: c.Tag, Label: label, Translated: label != c.Tag}},
		})
	}
	for _, expr := range recent {
		entries = append(entries, makeEntry(expr, SourceHistory, translations))
	}
	return entries, nil
}

// EditBuilder populates the edit dropdown: every distinct tag used in recent
// searches, without "or" or negation prefixes, ordered by display label.
type EditBuilder struct {
	Name       string
	History    HistorySource
	Kind       string
	Translator Translator
	Locale     string
}

// Build implements Builder.
func (b EditBuilder) Build(ctx context.Context) ([]Entry, error) {
	recent := recentSnapshot(ctx, b.Name, b.History, b.Kind)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tags := search.DistinctTags(recent, true)
	translations := lookup(ctx, b.Name, b.Translator, tags, b.Locale)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(tags))
	for _, tag := range tags {
		label, ok := translations[tag]
		if !ok || label == "" {
			label = tag
		}
		entries = append(entries, Entry{
			Key:    tag,
			Label:  label,
			Source: SourceHistory,
			Words:  []Word{{Tag: tag, Label: label, Translated: ok && label != tag}},
		})
	}
	SortByLabel(entries, b.Locale)
	return entries, nil
}

// SortByLabel orders entries case-insensitively by label using the
// locale's collation, breaking ties by key.
func SortByLabel(entries []Entry, locale string) {
	col := collate.New(language.Make(locale), collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		if c := col.CompareString(entries[i].Label, entries[j].Label); c != 0 {
			return c < 0
		}
		return entries[i].Key < entries[j].Key
	})
}

func makeEntry(expr string, source Source, translations map[string]string) Entry {
	words := search.Words(expr)
	out := make([]Word, 0, len(words))
	labels := make([]string, 0, len(words))
	for _, w := range words {
		if search.IsOr(w) {
			out = append(out, Word{Tag: search.OrOperator, Label: search.OrOperator, Operator: true})
			labels = append(labels, search.OrOperator)
			continue
		}
		prefix, tag := search.SplitPrefix(w)
		word := Word{Tag: tag, Label: w}
		if label, ok := translations[tag]; ok && label != "" {
			word.Label = prefix + label
			word.Translated = true
		}
		out = append(out, word)
		labels = append(labels, word.Label)
	}
	label := strings.Join(labels, " ")
	if whole, ok := translations[expr]; ok && whole != "" {
		label = whole
	}
	return Entry{Key: expr, Label: label, Source: source, Words: out}
}

func recentSnapshot(ctx context.Context, name string, src HistorySource, kind string) []string {
	if src == nil {
		return nil
	}
	recent, err := src.Recent(ctx, kind)
	if err != nil {
		if ctx.Err() == nil {
			events.Populate.SourceError(name, "history", err)
			logging.Error(fmt.Errorf("%s: recent %s: %w", name, kind, err))
		}
		return nil
	}
	return recent
}

func lookup(ctx context.Context, name string, tr Translator, keys []string, locale string) map[string]string {
	if tr == nil || len(keys) == 0 {
		return map[string]string{}
	}
	out, err := tr.Translations(ctx, keys, locale)
	if err != nil {
		if ctx.Err() == nil {
			events.Populate.SourceError(name, "translations", err)
			logging.Error(fmt.Errorf("%s: translations: %w", name, err))
		}
		return map[string]string{}
	}
	if out == nil {
		out = map[string]string{}
	}
	return out
}
