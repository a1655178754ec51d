// Package ratelimit implements per-client fixed-window admission control.
package ratelimit

import (
	"sync"
	"time"

	"genweb/internal/metrics"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 60
)

type window struct {
	count int
	start time.Time
}

// Limiter allows at most max requests per client key within each window.
// A key's window starts with its first request and resets on the first
// request observed after it elapsed.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*window
	window  time.Duration
	max     int
	metrics *metrics.Registry
}

// NewLimiter creates a Limiter. Non-positive arguments fall back to the
// defaults.
func NewLimiter(win time.Duration, max int, metricsRegistry *metrics.Registry) *Limiter {
	if win <= 0 {
		win = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &Limiter{
		entries: make(map[string]*window),
		window:  win,
		max:     max,
		metrics: metricsRegistry,
	}
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow records a request for key and reports whether it is admitted.
// A rejected request does not count against the window.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) > l.window {
		l.entries[key] = &window{count: 1, start: now}
		l.metrics.Inc(metrics.AdmissionAllowedTotal)
		l.metrics.Set(metrics.AdmissionKeys, int64(len(l.entries)))
		return true
	}

	if w.count >= l.max {
		l.metrics.Inc(metrics.AdmissionRejectedTotal)
		return false
	}

	w.count++
	l.metrics.Inc(metrics.AdmissionAllowedTotal)
	return true
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RemoveExpired drops keys whose window has elapsed.
//
// Called by the background sweeper every window.
func (l *Limiter) RemoveExpired() int {
	now := time.Now()
	removed := 0

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, w := range l.entries {
		if now.Sub(w.start) > l.window {
			delete(l.entries, k)
			removed++
		}
	}

	if removed > 0 {
		l.metrics.Set(metrics.AdmissionKeys, int64(len(l.entries)))
	}
	return removed
}
