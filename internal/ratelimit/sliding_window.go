package ratelimit

import (
	"sync"
	"time"

	"agora/internal/clock"
)

// Limiter is an in-memory sliding window limiter keyed by caller. State is
// lost on restart.
type Limiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets map[string][]time.Time
}

func NewLimiter(c clock.Clock) *Limiter {
	if c == nil {
		c = clock.System()
	}
	return &Limiter{
		clock:   c,
		buckets: map[string][]time.Time{},
	}
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (l *Limiter) Allow(key string, limit int, window time.Duration) Result {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return Result{Allowed: true}
	}
	history := trim(l.buckets[key], now.Add(-window))

	result := Result{
		Allowed: len(history) < limit,
		Limit:   limit,
	}
	if !result.Allowed {
		result.ResetAt = history[0].Add(window)
		l.buckets[key] = history
		return result
	}

	history = append(history, now)
	l.buckets[key] = history
	result.Remaining = limit - len(history)
	result.ResetAt = history[0].Add(window)
	return result
}

// Peek reports what Allow would return for key without recording a hit.
// ResetAt is zero when the key has no hits inside window.
func (l *Limiter) Peek(key string, limit int, window time.Duration) Result {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return Result{Allowed: true}
	}
	history := trim(l.buckets[key], now.Add(-window))
	l.buckets[key] = history

	result := Result{
		Allowed:   len(history) < limit,
		Limit:     limit,
		Remaining: max(limit-len(history), 0),
	}
	if len(history) > 0 {
		result.ResetAt = history[0].Add(window)
	}
	return result
}

// Prune drops keys with no hits inside window.
func (l *Limiter) Prune(window time.Duration) int {
	cutoff := l.clock.Now().Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, history := range l.buckets {
		history = trim(history, cutoff)
		if len(history) == 0 {
			delete(l.buckets, key)
			removed++
			continue
		}
		l.buckets[key] = history
	}
	return removed
}

func trim(history []time.Time, cutoff time.Time) []time.Time {
	trimmed := history[:0]
	for _, ts := range history {
		if !ts.Before(cutoff) {
			trimmed = append(trimmed, ts)
		}
	}
	return trimmed
}
