package overlay

import (
	"slices"
	"sync"
)

// Hider is anything that can be asked to close.
type Hider interface {
	Hide()
}

// ViewHidden broadcasts "the containing view closed" to every overlay
// subscribed to it.
type ViewHidden struct {
	mu   sync.Mutex
	next int
	subs map[int]Hider
}

// NewViewHidden creates an empty broadcaster.
func NewViewHidden() *ViewHidden {
	return &ViewHidden{subs: make(map[int]Hider)}
}

// Subscribe registers h and returns the call that removes it again.
func (v *ViewHidden) Subscribe(h Hider) (unsubscribe func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = h
	v.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// Send hides every subscriber in subscription order.
func (v *ViewHidden) Send() {
	v.mu.Lock()
	ids := make([]int, 0, len(v.subs))
	hiders := make(map[int]Hider, len(v.subs))
	for id, h := range v.subs {
		ids = append(ids, id)
		hiders[id] = h
	}
	v.mu.Unlock()
	slices.Sort(ids)
	for _, id := range ids {
		hiders[id].Hide()
	}
}
