// Package backend carries change notifications from the collaborators, which
// fire on arbitrary goroutines, to the single goroutine that runs the UI.
package backend

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Kind identifies which collaborator changed.
type Kind int

const (
	KindAutocomplete Kind = iota
	KindSearchHistory
	KindBookmarkHistory
	KindSettings
)

func (k Kind) String() string {
	switch k {
	case KindAutocomplete:
		return "autocomplete"
	case KindSearchHistory:
		return "search-history"
	case KindBookmarkHistory:
		return "bookmark-history"
	case KindSettings:
		return "settings"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one change notification. Key names the setting for KindSettings.
type Event struct {
	Kind Kind
	Key  string
}

// Bridge queues notifications and delivers them on Events. A notification
// that is already queued is not queued again, so a burst of changes reaches
// the UI as one event.
type Bridge struct {
	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wake   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	queued    map[Event]struct{}
	order     []Event
	throttles map[Kind]*throttle
	interval  time.Duration
}

// NewBridge starts a bridge whose deliveries of any one kind are spaced at
// least interval apart.
func NewBridge(interval time.Duration) *Bridge {
	b := newBridge(interval)
	b.wg.Add(1)
	go b.pump()
	go func() {
		b.wg.Wait()
		close(b.events)
	}()
	return b
}

func newBridge(interval time.Duration) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan Event, 16),
		wake:      make(chan struct{}, 1),
		queued:    make(map[Event]struct{}),
		throttles: make(map[Kind]*throttle),
		interval:  interval,
	}
}

// Events returns the delivery channel. It is closed after Stop.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Notify queues evt. It never blocks.
func (b *Bridge) Notify(evt Event) {
	if b.ctx.Err() != nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.queued[evt]; !ok {
		b.queued[evt] = struct{}{}
		b.order = append(b.order, evt)
	}
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// NotifyFunc returns a callback that queues an event of kind, for use as a
// subscription listener.
func (b *Bridge) NotifyFunc(kind Kind) func() {
	return func() { b.Notify(Event{Kind: kind}) }
}

// Stop ends delivery. Queued events are dropped.
func (b *Bridge) Stop() {
	b.cancel()
}

// Wait blocks until the pump has exited and Events is closed.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) pump() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-b.wake:
		}
		for {
			evt, ok := b.next()
			if !ok {
				break
			}
			if !b.throttleFor(evt.Kind).wait(b.ctx) {
				return
			}
			select {
			case <-b.ctx.Done():
				return
			case b.events <- evt:
			}
		}
	}
}

// next dequeues the oldest event. A repeat arriving after this queues a
// fresh delivery.
func (b *Bridge) next() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.order) == 0 {
		return Event{}, false
	}
	evt := b.order[0]
	b.order = b.order[1:]
	delete(b.queued, evt)
	return evt, true
}

func (b *Bridge) throttleFor(kind Kind) *throttle {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.throttles[kind]
	if !ok {
		t = newThrottle(b.interval)
		b.throttles[kind] = t
	}
	return t
}
