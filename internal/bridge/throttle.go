package bridge

import (
	"context"
	"sync"
	"time"
)

// throttle enforces a minimum delay between platform posts. The external
// platform rate-limits bursts, so replay paths queue behind this instead of
// failing. This is queueing, not locking: callers only ever wait, never fail.
type throttle struct {
	mu   sync.Mutex
	last time.Time
	min  time.Duration
}

func newThrottle(min time.Duration) *throttle {
	return &throttle{min: min}
}

// Wait blocks until the minimum interval since the previous send has passed
// or the context is cancelled.
func (t *throttle) Wait(ctx context.Context) error {
	if t.min <= 0 {
		return nil
	}
	t.mu.Lock()
	now := time.Now()
	next := t.last.Add(t.min)
	if next.Before(now) {
		next = now
	}
	t.last = next
	t.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
