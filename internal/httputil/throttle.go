// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between requests to one upstream
// API. Public bibliographic endpoints ban callers that exceed single-digit
// requests per second, so each source gets one Throttle shared across all
// concurrent discovery runs in the process.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewThrottle returns a throttle enforcing the given minimum interval.
// A zero or negative interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// SetInterval changes the minimum interval, e.g. when an API key raises
// the rate ceiling.
func (t *Throttle) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
}

// Wait blocks until the caller may issue the next request, or until the
// context is cancelled. Callers are admitted in lock-acquisition order;
// each admission reserves the following slot.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.interval <= 0 {
		t.mu.Unlock()
		return ctx.Err()
	}

	now := time.Now()
	at := t.next
	if at.Before(now) {
		at = now
	}
	t.next = at.Add(t.interval)
	t.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
