package state

import "strings"

// Target is the work the popup was opened for: the thing whose tags can be
// searched for and whose bookmark can be edited.
type Target struct {
	ID    string
	Title string
	Tags  []string
}

// Label returns the title, falling back to the ID.
func (t Target) Label() string {
	if title := strings.TrimSpace(t.Title); title != "" {
		return title
	}
	return t.ID
}

// Valid reports whether the target identifies anything.
func (t Target) Valid() bool {
	return strings.TrimSpace(t.ID) != ""
}

type TargetStore interface {
	Current() Target
	SetCurrent(Target)
	Clear()
}

type targetStore struct {
	current Target
}

func NewTargetStore() TargetStore {
	return &targetStore{}
}

func (s *targetStore) Current() Target {
	return cloneTarget(s.current)
}

func (s *targetStore) SetCurrent(t Target) {
	s.current = cloneTarget(t)
}

func (s *targetStore) Clear() {
	s.current = Target{}
}

func cloneTarget(t Target) Target {
	if len(t.Tags) > 0 {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}
