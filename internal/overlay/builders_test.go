package overlay

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/atomicstack/tag-popup-control/internal/autocomplete"
	"github.com/atomicstack/tag-popup-control/internal/logging"
)

type fakeHistory struct {
	recent map[string][]string
	err    error
}

func (f fakeHistory) Recent(ctx context.Context, kind string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recent[kind], nil
}

type fakeTranslator struct {
	labels map[string]string
	err    error
	asked  [][]string
}

func (f *fakeTranslator) Translations(ctx context.Context, keys []string, locale string) (map[string]string, error) {
	f.asked = append(f.asked, append([]string(nil), keys...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string)
	for _, k := range keys {
		if label, ok := f.labels[k]; ok {
			out[k] = label
		}
	}
	return out, nil
}

func labels(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}

func quietLogs(t *testing.T) {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { logging.Configure("") })
}

func TestEditBuilderSortsDistinctTagsByLabel(t *testing.T) {
	b := EditBuilder{
		Name:       "edit",
		History:    fakeHistory{recent: map[string][]string{"search": {"cat", "dog -cat"}}},
		Kind:       "search",
		Translator: &fakeTranslator{labels: map[string]string{"cat": "Cat"}},
		Locale:     "en",
	}
	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if want := []string{"Cat", "dog"}; !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("labels = %v, want %v", labels(got), want)
	}
	if got[0].Key != "cat" || got[1].Key != "dog" {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestEditBuilderMarksOnlyRealTranslations(t *testing.T) {
	b := EditBuilder{
		History:    fakeHistory{recent: map[string][]string{"": {"cat dog"}}},
		Translator: &fakeTranslator{labels: map[string]string{"cat": "Cat", "dog": ""}},
		Locale:     "en",
	}
	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if !got[0].Words[0].Translated {
		t.Fatalf("expected %q marked translated", got[0].Key)
	}
	if got[1].Label != "dog" || got[1].Words[0].Translated {
		t.Fatalf("empty translation must fall back untranslated, got %+v", got[1])
	}
}

func TestEditBuilderSkipsOrAndIgnoresCase(t *testing.T) {
	b := EditBuilder{
		History: fakeHistory{recent: map[string][]string{"": {"Zebra or apple", "-banana OR apple"}}},
	}
	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if want := []string{"apple", "banana", "Zebra"}; !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("labels = %v, want %v", labels(got), want)
	}
}

func TestDropdownBuilderOrdersAutocompleteFirst(t *testing.T) {
	tr := &fakeTranslator{labels: map[string]string{"cat": "Cat", "dog": "Dog"}}
	b := DropdownBuilder{
		Name:       "history",
		History:    fakeHistory{recent: map[string][]string{"search": {"dog -cat", "bird or cat"}}},
		Kind:       "search",
		Translator: tr,
		Autocomplete: func() []autocomplete.Candidate {
			return []autocomplete.Candidate{{Tag: "caterpillar", Label: "Caterpillar"}, {Tag: "cat"}}
		},
	}
	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	want := []string{"Caterpillar", "Cat", "Dog -Cat", "bird or Cat"}
	if !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("labels = %v, want %v", labels(got), want)
	}
	if got[0].Source != SourceAutocomplete || got[2].Source != SourceHistory {
		t.Fatalf("unexpected sources %v / %v", got[0].Source, got[2].Source)
	}
	if got[2].Key != "dog -cat" {
		t.Fatalf("expected history key to be the expression, got %q", got[2].Key)
	}
	or := got[3].Words[1]
	if !or.Operator || or.Label != "or" {
		t.Fatalf("expected or operator word, got %+v", or)
	}
	if len(tr.asked) != 1 {
		t.Fatalf("expected a single translation lookup, got %d", len(tr.asked))
	}
}

func TestDropdownBuilderDegradesOnCollaboratorFailure(t *testing.T) {
	quietLogs(t)
	b := DropdownBuilder{
		Name:       "history",
		History:    fakeHistory{recent: map[string][]string{"search": {"cat"}}},
		Kind:       "search",
		Translator: &fakeTranslator{err: errors.New("dictionary offline")},
	}
	got, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if want := []string{"cat"}; !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("labels = %v, want %v", labels(got), want)
	}

	b.History = fakeHistory{err: errors.New("storage locked")}
	got, err = b.Build(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty list without error, got %v %v", got, err)
	}
}

func TestBuildersStopWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := &fakeTranslator{}
	b := DropdownBuilder{
		History:    fakeHistory{recent: map[string][]string{"": {"cat"}}},
		Translator: tr,
	}
	if _, err := b.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(tr.asked) != 0 {
		t.Fatalf("cancelled build still asked for translations")
	}
}

func TestEditOverlayScenario(t *testing.T) {
	c := New("edit", EditBuilder{
		History:    fakeHistory{recent: map[string][]string{"search": {"cat", "dog -cat"}}},
		Kind:       "search",
		Translator: &fakeTranslator{labels: map[string]string{"cat": "Cat"}},
	})
	if !c.Show(context.Background()) {
		t.Fatalf("expected edit overlay to show")
	}
	if want := []string{"Cat", "dog"}; !reflect.DeepEqual(labels(c.Entries()), want) {
		t.Fatalf("labels = %v, want %v", labels(c.Entries()), want)
	}
}
