package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atomicstack/tag-popup-control/internal/logging/events"
)

// ErrNoBuilder is reported when an overlay is populated without a data source.
var ErrNoBuilder = errors.New("overlay: no builder configured")

// Result tags the outcome of one population.
type Result int

const (
	// Superseded means a newer population or a cancellation overtook this
	// one; nothing was published.
	Superseded Result = iota
	// Published means the entries were handed to the overlay.
	Published
	// Failed means the population was current but its builder failed.
	Failed
)

func (r Result) String() string {
	switch r {
	case Superseded:
		return "superseded"
	case Published:
		return "published"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Builder produces an overlay's entry list. Implementations must return
// promptly with ctx.Err() once ctx is cancelled.
type Builder interface {
	Build(ctx context.Context) ([]Entry, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context) ([]Entry, error)

func (f BuilderFunc) Build(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// PublishFunc receives the outcome of a current population. It runs with the
// pipeline lock held, so it must not call back into the pipeline or take the
// lock again.
type PublishFunc func(generation uint64, entries []Entry, err error)

// Pipeline serialises populations for one overlay. Only the newest call to
// Populate may publish.
type Pipeline struct {
	name    string
	builder Builder

	mu         sync.Locker
	generation uint64
	cancel     context.CancelFunc
}

// NewPipeline creates a pipeline backed by the builder.
func NewPipeline(name string, builder Builder) *Pipeline {
	return newPipeline(name, builder, &sync.Mutex{})
}

// newPipeline lets an owner share its own lock with the pipeline, so that
// publication and the owner's state changes are one critical section.
func newPipeline(name string, builder Builder, mu sync.Locker) *Pipeline {
	return &Pipeline{name: name, builder: builder, mu: mu}
}

// Generation returns the number of the most recently started population.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Running reports whether a population is in flight.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Populate cancels any pending population, runs the builder, and calls
// publish if this population is still current when the builder returns.
func (p *Pipeline) Populate(ctx context.Context, publish PublishFunc) Result {
	return p.Start(ctx).Run(publish)
}

// Start claims the next generation and cancels the previous population
// without running the builder yet. Hosts that must order population against
// later Cancel calls start the task synchronously and Run it elsewhere.
func (p *Pipeline) Start(ctx context.Context) *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(ctx)
}

func (p *Pipeline) startLocked(ctx context.Context) *Task {
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	popCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	events.Populate.Start(p.name, p.generation)
	return &Task{
		pipeline: p,
		gen:      p.generation,
		ctx:      popCtx,
		cancel:   cancel,
		builder:  p.builder,
	}
}

// Task is one started population.
type Task struct {
	pipeline *Pipeline
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	builder  Builder
}

// Generation returns the task's generation number.
func (t *Task) Generation() uint64 {
	return t.gen
}

// Cancelled reports whether the task can no longer publish.
func (t *Task) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Run executes the builder and publishes if the task is still current.
func (t *Task) Run(publish PublishFunc) Result {
	p := t.pipeline
	var (
		entries []Entry
		err     error
	)
	if t.builder == nil {
		violation("%s populated without a builder", p.name)
		err = ErrNoBuilder
	} else {
		entries, err = build(t.ctx, t.builder)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if t.gen != p.generation || t.ctx.Err() != nil {
		t.cancel()
		if t.gen == p.generation {
			p.cancel = nil
		}
		events.Populate.Superseded(p.name, t.gen, p.generation)
		return Superseded
	}
	t.cancel()
	p.cancel = nil
	if err != nil {
		events.Populate.Failed(p.name, t.gen, err)
		if publish != nil {
			publish(t.gen, nil, err)
		}
		return Failed
	}
	events.Populate.Published(p.name, t.gen, len(entries))
	if publish != nil {
		publish(t.gen, entries, nil)
	}
	return Published
}

// Cancel abandons the in-flight population, if any. After Cancel returns the
// abandoned population can no longer publish, although its builder may keep
// running until it notices the cancellation.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
}

func (p *Pipeline) cancelLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
}

func build(ctx context.Context, builder Builder) (entries []Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("overlay builder panicked: %v", r)
		}
	}()
	return builder.Build(ctx)
}
