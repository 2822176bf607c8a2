package contextmenu

import "time"

// LoopScheduler runs timers with time.AfterFunc and hands every callback to
// post, which should queue it on the host's event loop.
type LoopScheduler struct {
	post func(func())
}

// NewLoopScheduler creates a scheduler. A nil post runs callbacks on their
// own goroutine.
func NewLoopScheduler(post func(func())) *LoopScheduler {
	return &LoopScheduler{post: post}
}

// After implements Scheduler.
func (s *LoopScheduler) After(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, func() { s.run(f) })
	return t.Stop
}

// Defer implements Scheduler.
func (s *LoopScheduler) Defer(f func()) {
	s.run(f)
}

func (s *LoopScheduler) run(f func()) {
	if s.post == nil {
		go f()
		return
	}
	s.post(f)
}
