// Package ratelimit implements a fixed-window request counter keyed by
// credential identity. State is process-local: each instance counts on its
// own, which is an accepted deployment constraint for a single-process
// office backend.
//
// Fixed windows admit up to twice the nominal rate across a window boundary.
// That is a property of the algorithm, not a bug.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one Allow call. Remaining and ResetAt are valid
// on both allowed and rejected results; RetryAfter is only meaningful on
// rejection.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, rounded up
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key within fixed windows of the configured
// duration.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	period  time.Duration

	now func() time.Time // overridable in tests
}

// New creates a Limiter allowing max requests per key per window.
func New(max int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		max:     max,
		period:  period,
		now:     time.Now,
	}
}

// Allow consumes one request slot for key. The first request of a key, or
// the first after its window has elapsed, starts a fresh window with
// count 1. Within a live window the count increments until the limit is
// reached; further requests are rejected until the window resets.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.period)}
		l.windows[key] = w
		return Result{
			Allowed:   true,
			Limit:     l.max,
			Remaining: l.max - 1,
			ResetAt:   w.resetAt,
		}
	}

	if w.count < l.max {
		w.count++
		return Result{
			Allowed:   true,
			Limit:     l.max,
			Remaining: l.max - w.count,
			ResetAt:   w.resetAt,
		}
	}

	retryAfter := int((w.resetAt.Sub(now) + time.Second - 1) / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	return Result{
		Allowed:    false,
		Limit:      l.max,
		Remaining:  0,
		ResetAt:    w.resetAt,
		RetryAfter: retryAfter,
	}
}

// Sweep removes windows that already expired, bounding memory when keys come
// and go. Returns the number of windows evicted.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
			evicted++
		}
	}
	return evicted
}

// StartJanitor runs Sweep on the given interval until the returned stop
// function is called.
func (l *Limiter) StartJanitor(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
