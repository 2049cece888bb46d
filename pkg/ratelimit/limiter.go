// Package ratelimit implements a per-key fixed-window request counter with
// periodic eviction of abandoned keys.
//
// State is process-local. Running several instances multiplies the effective
// budget by the instance count.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/rs/zerolog"
)

const (
	DefaultWindow        = 15 * time.Minute
	DefaultMaxRequests   = 5
	DefaultSweepInterval = 30 * time.Minute
)

type Options struct {
	Window      time.Duration
	MaxRequests int
	Store       Store
	Clock       clock.Clock
	Logger      zerolog.Logger
}

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left in the window, rounded up to whole seconds and
// never below one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

type Stats struct {
	Keys int `json:"keys"`
}

// Limiter admits at most MaxRequests per key within each Window.
type Limiter struct {
	mu     sync.Mutex
	store  Store
	clock  clock.Clock
	window time.Duration
	max    int
	logger zerolog.Logger
}

func New(opts Options) *Limiter {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewClock()
	}
	return &Limiter{
		store:  opts.Store,
		clock:  opts.Clock,
		window: opts.Window,
		max:    opts.MaxRequests,
		logger: opts.Logger,
	}
}

func (l *Limiter) Window() time.Duration { return l.window }
func (l *Limiter) MaxRequests() int      { return l.max }
func (l *Limiter) Now() time.Time        { return l.clock.Now() }

// Check records a request for key and reports whether it is admitted.
// A request arriving exactly at ResetAt opens a new window. Rejected
// requests do not increment the count.
func (l *Limiter) Check(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.store.Get(key)
	if !ok || !now.Before(e.ResetAt) {
		e = Entry{Count: 1, ResetAt: now.Add(l.window)}
		l.store.Set(key, e)
		return l.decision(true, e)
	}
	if e.Count >= l.max {
		return l.decision(false, e)
	}
	e.Count++
	l.store.Set(key, e)
	return l.decision(true, e)
}

func (l *Limiter) decision(allowed bool, e Entry) Decision {
	remaining := l.max - e.Count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: allowed, Count: e.Count, Remaining: remaining, ResetAt: e.ResetAt}
}

// Sweep deletes entries whose window closed more than one extra window ago
// and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var stale []string
	l.store.Range(func(key string, e Entry) bool {
		if now.After(e.ResetAt.Add(l.window)) {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		l.store.Delete(key)
	}
	return len(stale)
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (l *Limiter) StartSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := l.clock.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				if n := l.Sweep(); n > 0 {
					l.logger.Debug().Int("removed", n).Msg("Swept expired rate limit entries")
				}
			}
		}
	}()
}

// Reset drops every entry.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	var keys []string
	l.store.Range(func(key string, _ Entry) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		l.store.Delete(key)
	}
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	l.store.Range(func(string, Entry) bool {
		n++
		return true
	})
	return Stats{Keys: n}
}
