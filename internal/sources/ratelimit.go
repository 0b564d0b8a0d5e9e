// Package sources provides clients for external publication databases.
package sources

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket rate limiter for controlling request rates
// to external APIs. It is safe for concurrent use because the underlying
// rate.Limiter is goroutine-safe for all operations.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate of requests per second.
// burst is the maximum burst size (number of tokens that can be consumed at once).
//
// Example configurations:
//   - arXiv: NewRateLimiter(1.0/3.0, 1) for 1 request per 3 seconds
//   - Crossref: NewRateLimiter(10, 10) for 10 requests per second
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
// It returns an error if the context is canceled or the deadline is exceeded.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow returns true if a request is allowed without waiting.
// It consumes one token if allowed, and returns false if no tokens are available.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate updates the rate limit while preserving the current burst size.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Tokens returns the current number of available tokens.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

// SlidingWindowLimiter allows at most maxRequests within a trailing window.
// Unlike the token bucket, the window is exact: a request slot becomes
// available only when the oldest recorded request falls out of the window.
// It is safe for concurrent use.
type SlidingWindowLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	timestamps  []time.Time
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewSlidingWindowLimiter creates a limiter that permits maxRequests per window.
func NewSlidingWindowLimiter(maxRequests int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Wait blocks until a request slot is available or the context is canceled.
// On success the request is recorded against the window.
func (l *SlidingWindowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)

		if len(l.timestamps) < l.maxRequests {
			l.timestamps = append(l.timestamps, now)
			l.mu.Unlock()
			return nil
		}

		// Window is full. Wait until the oldest entry expires, then re-check.
		wait := l.timestamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InFlight returns the number of requests currently counted in the window.
func (l *SlidingWindowLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.timestamps)
}

// evict drops timestamps older than the window. Caller must hold mu.
func (l *SlidingWindowLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
