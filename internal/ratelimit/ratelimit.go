// Package ratelimit implements keyed sliding-window limiters. A limiter is
// built once at process start, injected where it is needed and never reset.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLimitExceeded is returned when a key has used up its window.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Rule caps a key at Max admitted calls per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Result describes the state of a key after a check.
type Result struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration // set when the call was rejected
}

// Limiter admits or rejects a call for key under rule. A rejected call
// returns ErrLimitExceeded; any other error is a backend failure.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Result, error)
}

// Window is the in-process limiter. Each key owns a time-ordered list of
// admitted instants guarded by its own mutex, so keys never contend with
// each other.
type Window struct {
	now  func() time.Time
	keys sync.Map // string -> *window
}

type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// Option configures a Window.
type Option func(*Window)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

// NewWindow returns an empty in-process limiter.
func NewWindow(opts ...Option) *Window {
	w := &Window{now: time.Now}
	for _, o := range opts {
		o(w)
	}
	return w
}

var _ Limiter = (*Window)(nil)

// Allow trims instants older than the window, then admits the call if fewer
// than rule.Max remain and records it.
func (w *Window) Allow(_ context.Context, key string, rule Rule) (Result, error) {
	e := w.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-rule.Window)
	i := 0
	for i < len(e.hits) && e.hits[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		e.hits = append(e.hits[:0], e.hits[i:]...)
	}

	res := Result{Limit: rule.Max}
	if len(e.hits) >= rule.Max {
		res.RetryAfter = rule.Window
		if len(e.hits) > 0 {
			res.RetryAfter = e.hits[0].Add(rule.Window).Sub(now)
		}
		return res, ErrLimitExceeded
	}
	e.hits = append(e.hits, now)
	res.Remaining = rule.Max - len(e.hits)
	return res, nil
}

func (w *Window) entry(key string) *window {
	if v, ok := w.keys.Load(key); ok {
		return v.(*window)
	}
	v, _ := w.keys.LoadOrStore(key, &window{})
	return v.(*window)
}
