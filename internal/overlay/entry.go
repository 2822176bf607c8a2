package overlay

import "fmt"

// Source records where an entry came from.
type Source int

const (
	SourceHistory Source = iota
	SourceAutocomplete
)

func (s Source) String() string {
	switch s {
	case SourceHistory:
		return "history"
	case SourceAutocomplete:
		return "autocomplete"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Word is one displayed word of an entry's search expression.
type Word struct {
	Tag        string
	Label      string
	Translated bool
	Operator   bool
}

// Entry is a single row of a populated overlay. Entries are rebuilt on every
// population and never mutated after publication.
type Entry struct {
	Key      string
	Label    string
	Source   Source
	Words    []Word
	Metadata interface{}
}

func cloneEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]Entry, len(entries))
	copy(dup, entries)
	return dup
}

// Selection is an index into the current entry list, or none.
type Selection struct {
	index int
	set   bool
}

// NoSelection is the empty selection.
var NoSelection = Selection{}

// Select returns a selection of index i.
func Select(i int) Selection {
	return Selection{index: i, set: true}
}

// Index returns the selected index and whether one is set.
func (s Selection) Index() (int, bool) {
	return s.index, s.set
}

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool {
	return !s.set
}

// Direction is a keyboard movement through the entry list.
type Direction int

const (
	Next Direction = iota
	Previous
)
