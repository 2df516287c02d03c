// Package ratelimit throttles API callers by key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// KeyedLimiter keeps one token bucket per key. Each bucket holds burst
// tokens and refills at the configured rate.
type KeyedLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Option configures a KeyedLimiter
type Option func(*KeyedLimiter)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(l *KeyedLimiter) { l.now = now }
}

// NewKeyedLimiter creates a limiter allowing burst calls at once per key,
// refilled at limit tokens per second.
func NewKeyedLimiter(limit rate.Limit, burst int, opts ...Option) *KeyedLimiter {
	l := &KeyedLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
	// A bucket untouched for this long is full again and can be dropped
	if limit > 0 && limit != rate.Inf {
		l.idleAfter = time.Duration(float64(burst) / float64(limit) * float64(time.Second))
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewPerMinuteLimiter allows requestsPerMinute calls per key, spread evenly
// once the initial burst is spent.
func NewPerMinuteLimiter(requestsPerMinute int, opts ...Option) *KeyedLimiter {
	every := time.Minute / time.Duration(requestsPerMinute)
	return NewKeyedLimiter(rate.Every(every), requestsPerMinute, opts...)
}

// Allow takes a token from the key's bucket when one is available
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Reset refills the bucket for key
func (l *KeyedLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

// Sweep drops buckets that have been idle long enough to refill and
// returns how many were removed.
func (l *KeyedLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleAfter)
	removed := 0
	for key, b := range l.buckets {
		if !b.lastSeen.After(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run sweeps idle keys every interval until ctx is done
func (l *KeyedLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

var _ Limiter = (*KeyedLimiter)(nil)
