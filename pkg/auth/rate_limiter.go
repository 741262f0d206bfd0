// Package auth verifies bearer tokens and limits request rates per actor.
package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucketLimiter refills each key's bucket at a steady rate up to burst
// tokens. Idle buckets are dropped after an hour.
type TokenBucketLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	burst    float64
	perToken time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucketLimiter allows requestsPerMinute on average with bursts of up
// to burst requests.
func NewTokenBucketLimiter(requestsPerMinute, burst int) *TokenBucketLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	l := &TokenBucketLimiter{
		buckets:  make(map[string]*bucket),
		burst:    float64(burst),
		perToken: time.Minute / time.Duration(requestsPerMinute),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup(5 * time.Minute)
	return l
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastRefill: now}
		l.buckets[key] = b
	}

	refill := float64(now.Sub(b.lastRefill)) / float64(l.perToken)
	b.tokens = min(b.tokens+refill, l.burst)
	b.lastRefill = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Close stops the cleanup loop.
func (l *TokenBucketLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *TokenBucketLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle(time.Hour)
		}
	}
}

func (l *TokenBucketLimiter) evictIdle(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > idle {
			delete(l.buckets, key)
		}
	}
}
