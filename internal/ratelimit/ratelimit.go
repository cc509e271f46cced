// Package ratelimit is a TTL-keyed attempt counter with periodic eviction.
// It is best effort and never consulted for availability decisions.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter allows up to limit hits per key within each window.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	keys   map[string]entry
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		keys:   make(map[string]entry),
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.keys[key]
	if !ok || now.After(e.resetAt) {
		l.keys[key] = entry{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	e.count++
	l.keys[key] = e
	return e.count <= l.limit
}

// Evict drops expired keys until ctx is cancelled.
func (l *Limiter) Evict(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictOnce(time.Now())
		}
	}
}

func (l *Limiter) evictOnce(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.keys {
		if now.After(e.resetAt) {
			delete(l.keys, k)
		}
	}
}
