// Package ratelimit enforces per-scope request quotas over two fixed
// windows, hourly and daily. A scope is typically a client identifier; an
// empty scope falls back to a single shared bucket.
package ratelimit

import (
	"sync"
	"time"
)

// GlobalScope is used when no client identifier is available.
const GlobalScope = "global"

// Clock abstracts time.Now for deterministic window tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config sets the quotas. A limit of zero or less disables that window.
type Config struct {
	PerHour int
	PerDay  int
}

// Decision is the outcome of one admission check. RetryAfter is only set
// when the request was denied.
type Decision struct {
	Allowed         bool
	RetryAfter      time.Duration
	RemainingHourly int
	RemainingDaily  int
}

type windows struct {
	hourStart time.Time
	hourCount int
	dayStart  time.Time
	dayCount  int
}

// Limiter tracks admissions per scope. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	cfg    Config
	clock  Clock
	scopes map[string]*windows
}

// New creates a Limiter. clock may be nil.
func New(cfg Config, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{
		cfg:    cfg,
		clock:  clock,
		scopes: map[string]*windows{},
	}
}

// Admit records one request against the scope's hourly and daily windows.
// Denied requests do not consume quota.
func (l *Limiter) Admit(scope string) Decision {
	if scope == "" {
		scope = GlobalScope
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	w, ok := l.scopes[scope]
	if !ok {
		w = &windows{hourStart: now, dayStart: now}
		l.scopes[scope] = w
	}

	// Windows are fixed: they open on the first request and roll over once
	// their full duration has elapsed.
	if now.Sub(w.hourStart) >= time.Hour {
		w.hourStart = now
		w.hourCount = 0
	}
	if now.Sub(w.dayStart) >= 24*time.Hour {
		w.dayStart = now
		w.dayCount = 0
	}

	if l.cfg.PerHour > 0 && w.hourCount >= l.cfg.PerHour {
		return Decision{
			Allowed:         false,
			RetryAfter:      w.hourStart.Add(time.Hour).Sub(now),
			RemainingHourly: 0,
			RemainingDaily:  l.remainingDaily(w),
		}
	}
	if l.cfg.PerDay > 0 && w.dayCount >= l.cfg.PerDay {
		return Decision{
			Allowed:         false,
			RetryAfter:      w.dayStart.Add(24 * time.Hour).Sub(now),
			RemainingHourly: l.remainingHourly(w),
			RemainingDaily:  0,
		}
	}

	w.hourCount++
	w.dayCount++

	return Decision{
		Allowed:         true,
		RemainingHourly: l.remainingHourly(w),
		RemainingDaily:  l.remainingDaily(w),
	}
}

func (l *Limiter) remainingHourly(w *windows) int {
	if l.cfg.PerHour <= 0 {
		return -1
	}
	if n := l.cfg.PerHour - w.hourCount; n > 0 {
		return n
	}
	return 0
}

func (l *Limiter) remainingDaily(w *windows) int {
	if l.cfg.PerDay <= 0 {
		return -1
	}
	if n := l.cfg.PerDay - w.dayCount; n > 0 {
		return n
	}
	return 0
}
