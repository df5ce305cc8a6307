package ratelimit

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// sweepProbability is the chance that a call to Allow also removes expired
// entries. Best-effort housekeeping to bound memory growth, not exact.
const sweepProbability = 0.01

type entry struct {
	count   int
	resetAt time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int // seconds until the window resets; set when denied
	ResetAt    time.Time
}

// Limiter is a fixed-window request counter keyed by caller identity. State
// is process-local; each Limiter instance enforces its limit independently.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	sweepP  float64
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the limiter's time source. Used by tests to advance
// windows deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a Limiter allowing limit requests per window per key.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
		sweepP:  sweepProbability,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request for key and reports whether it fits in the
// current window. A request arriving after the window's reset time starts a
// fresh window.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if rand.Float64() < l.sweepP {
		l.sweepLocked(now)
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return Decision{Allowed: true, Remaining: l.limit - 1, ResetAt: e.resetAt}
	}

	if e.count >= l.limit {
		retry := int(math.Ceil(e.resetAt.Sub(now).Seconds()))
		if retry < 1 {
			retry = 1
		}
		return Decision{Allowed: false, RetryAfter: retry, ResetAt: e.resetAt}
	}

	e.count++
	return Decision{Allowed: true, Remaining: l.limit - e.count, ResetAt: e.resetAt}
}

func (l *Limiter) sweepLocked(now time.Time) {
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}
