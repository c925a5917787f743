// Package ratelimit provides per-key token buckets for abuse-prone
// public endpoints.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key (typically client IP).
// Idle buckets are dropped after the stale window to bound memory.
type KeyedLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	staleFor time.Duration
	lastGC   time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(perMinute int, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		buckets:  make(map[string]*bucket),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		staleFor: 10 * time.Minute,
		lastGC:   time.Now(),
	}
}

// Allow reports whether the key may proceed.
func (l *KeyedLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.staleFor {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.staleFor {
				delete(l.buckets, k)
			}
		}
		l.lastGC = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}
