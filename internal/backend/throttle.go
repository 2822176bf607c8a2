package backend

import (
	"context"
	"sync"
	"time"
)

// throttle ensures a minimum interval between successive deliveries.
type throttle struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func newThrottle(interval time.Duration) *throttle {
	if interval <= 0 {
		return &throttle{}
	}
	return &throttle{interval: interval}
}

// wait blocks until the next slot or until ctx ends, reporting whether the
// slot was reached.
func (t *throttle) wait(ctx context.Context) bool {
	if t == nil || t.interval <= 0 {
		return ctx.Err() == nil
	}
	for {
		t.mu.Lock()
		wait := time.Until(t.next)
		if wait <= 0 {
			t.next = time.Now().Add(t.interval)
			t.mu.Unlock()
			return true
		}
		t.mu.Unlock()
		if wait > t.interval {
			wait = t.interval
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
