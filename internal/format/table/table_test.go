package table

import (
	"reflect"
	"testing"
)

func TestFormatAlignsColumns(t *testing.T) {
	got := Format([][]string{
		{"cat", "on"},
		{"caterpillar", "off"},
	}, []Alignment{AlignLeft, AlignRight})
	want := []string{
		"cat           on",
		"caterpillar  off",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatMeasuresWideRunes(t *testing.T) {
	got := Format([][]string{
		{"猫", "x"},
		{"cat", "y"},
	}, nil)
	want := []string{
		"猫   x",
		"cat  y",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatRaggedRows(t *testing.T) {
	got := Format([][]string{{"a", "b"}, {"long"}}, nil)
	want := []string{"a     b", "long  "}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFit(t *testing.T) {
	if got := Fit("abc", 5); got != "abc  " {
		t.Fatalf("pad = %q", got)
	}
	if got := Fit("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := Fit("猫猫猫", 4); Width(got) > 4 {
		t.Fatalf("wide truncate = %q", got)
	}
	if Fit("abc", 0) != "" {
		t.Fatalf("zero width should be empty")
	}
}
