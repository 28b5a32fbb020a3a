// Package ratelimit serializes remote API calls through a shared minimum
// inter-request interval. The limiter is an explicit object injected into
// providers rather than package-level state, so tests can run independent
// instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a fixed minimum interval between calls. All goroutines
// sharing one Limiter are serialized against the same "earliest next
// request" time.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// New returns a limiter with the given minimum interval between requests.
// A non-positive interval disables waiting.
func New(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Interval returns the configured minimum interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the limiter permits the next request or ctx is done.
// N back-to-back calls complete in no less than (N-1) * interval.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
