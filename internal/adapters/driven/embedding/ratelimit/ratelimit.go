// Package ratelimit throttles requests to remote embedding providers.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is the pause after a 429 that gave no Retry-After.
const DefaultBackoff = 10 * time.Second

// Limiter is a token bucket that a provider's 429 can also pause. The nil
// *Limiter is valid and never blocks.
type Limiter struct {
	bucket *rate.Limiter

	mu          sync.Mutex
	pausedUntil time.Time
}

// New allows requestsPerSecond on average with bursts of up to burst.
// A non-positive rate returns nil.
func New(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1))}
}

func (l *Limiter) pause() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Until(l.pausedUntil)
}

// Wait blocks until any pause has passed and a token is free.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	if d := l.pause(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return l.bucket.Wait(ctx)
}

// Allow takes a token if one is free and no pause is in force.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.pause() <= 0 && l.bucket.Allow()
}

// Backoff pauses requests for d, or DefaultBackoff when d is not
// positive. A pause is only ever extended.
func (l *Limiter) Backoff(d time.Duration) {
	if l == nil {
		return
	}
	if d <= 0 {
		d = DefaultBackoff
	}
	until := time.Now().Add(d)

	l.mu.Lock()
	if until.After(l.pausedUntil) {
		l.pausedUntil = until
	}
	l.mu.Unlock()
}

// RetryAfter reads a Retry-After header given in seconds. HTTP dates and
// junk give zero.
func RetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
