package state

import "testing"

func TestTargetStoreCopies(t *testing.T) {
	s := NewTargetStore()
	tags := []string{"cat", "dog"}
	s.SetCurrent(Target{ID: "42", Tags: tags})
	tags[0] = "changed"

	got := s.Current()
	if got.Tags[0] != "cat" {
		t.Fatalf("store shares caller slice")
	}
	got.Tags[1] = "changed"
	if s.Current().Tags[1] != "dog" {
		t.Fatalf("store leaks its slice")
	}
}

func TestTargetLabelAndClear(t *testing.T) {
	s := NewTargetStore()
	if s.Current().Valid() {
		t.Fatalf("empty store has a target")
	}
	s.SetCurrent(Target{ID: "42"})
	if s.Current().Label() != "42" {
		t.Fatalf("label = %q", s.Current().Label())
	}
	s.SetCurrent(Target{ID: "42", Title: " Sunset "})
	if s.Current().Label() != "Sunset" {
		t.Fatalf("label = %q", s.Current().Label())
	}
	s.Clear()
	if s.Current().Valid() {
		t.Fatalf("expected cleared target")
	}
}
