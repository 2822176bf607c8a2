package autocomplete

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/atomicstack/tag-popup-control/internal/logging"
	"github.com/atomicstack/tag-popup-control/internal/logging/events"
)

// Coalescer keeps at most one autocomplete request in flight. Input that
// arrives during a request is remembered and, once the request completes,
// the input's current value is requested next.
type Coalescer struct {
	client    Client
	current   func() string
	onResults func()
	base      context.Context

	mu            sync.Mutex
	inFlight      bool
	inFlightQuery string
	requestID     string
	cancel        context.CancelFunc
	seq           uint64
	pending       string
	hasPending    bool
	lastCompleted string
	completedAny  bool
	results       []Candidate

	wg sync.WaitGroup
}

// NewCoalescer creates a coalescer. current returns the input's text at
// the time it is called; onResults runs, without locks held, whenever the
// stored results change.
func NewCoalescer(ctx context.Context, client Client, current func() string, onResults func()) *Coalescer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Coalescer{client: client, current: current, onResults: onResults, base: ctx}
}

// OnQueryChanged reacts to user-typed input. Empty input aborts any request
// and clears the results before returning, without touching the network.
// Input equal to the last completed query is ignored while idle; during a
// request it is recorded like any other so the completion can catch up.
func (c *Coalescer) OnQueryChanged(text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" {
		c.abortLocked()
		hadResults := len(c.results) > 0
		c.results = nil
		c.lastCompleted = ""
		c.completedAny = false
		c.mu.Unlock()
		events.Autocomplete.Cleared()
		if hadResults {
			c.notify()
		}
		return
	}
	if c.inFlight {
		c.pending = text
		c.hasPending = true
		c.mu.Unlock()
		events.Autocomplete.Coalesced(text)
		return
	}
	if c.completedAny && text == c.lastCompleted {
		c.mu.Unlock()
		return
	}
	c.startLocked(text)
	c.mu.Unlock()
}

func (c *Coalescer) startLocked(query string) {
	c.seq++
	seq := c.seq
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(c.base)
	c.inFlight = true
	c.inFlightQuery = query
	c.requestID = id
	c.cancel = cancel
	c.hasPending = false
	c.pending = ""

	events.Autocomplete.Request(id, query)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		results, err := c.client.Complete(ctx, query)
		c.finish(seq, id, query, results, err)
	}()
}

func (c *Coalescer) finish(seq uint64, id, query string, results []Candidate, err error) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	c.inFlightQuery = ""
	c.requestID = ""
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	hadPending := c.hasPending
	c.hasPending = false
	c.pending = ""
	if err != nil {
		c.results = nil
	} else {
		c.results = append([]Candidate(nil), results...)
		c.lastCompleted = query
		c.completedAny = true
	}
	c.mu.Unlock()

	if err != nil {
		events.Autocomplete.Failed(id, query, err)
		logging.Info("autocomplete request failed", "query", query, "error", err)
	} else {
		events.Autocomplete.Completed(id, query, len(results))
	}
	c.notify()

	if hadPending && c.current != nil {
		if latest := strings.TrimSpace(c.current()); latest != query {
			c.OnQueryChanged(latest)
		}
	}
}

// Abort cancels the in-flight request, if any, and forgets pending input.
// Stored results are kept. The aborted request can no longer store
// results once Abort returns.
func (c *Coalescer) Abort() {
	c.mu.Lock()
	c.abortLocked()
	c.mu.Unlock()
}

func (c *Coalescer) abortLocked() {
	c.hasPending = false
	c.pending = ""
	if !c.inFlight {
		return
	}
	id, query := c.requestID, c.inFlightQuery
	c.seq++
	c.inFlight = false
	c.inFlightQuery = ""
	c.requestID = ""
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	events.Autocomplete.Aborted(id, query)
	logging.Info("autocomplete request aborted", "query", query)
}

// Results returns the candidates of the last completed request.
func (c *Coalescer) Results() []Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return nil
	}
	return append([]Candidate(nil), c.results...)
}

// InFlight reports whether a request is outstanding.
func (c *Coalescer) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Pending returns the input remembered while a request is in flight.
func (c *Coalescer) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.hasPending
}

// Wait blocks until every request goroutine started so far has returned.
func (c *Coalescer) Wait() {
	c.wg.Wait()
}

func (c *Coalescer) notify() {
	if c.onResults != nil {
		c.onResults()
	}
}
