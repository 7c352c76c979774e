package redis

import (
	"context"
	"time"
)

// DefaultRateWindow is used when NewRateLimiter gets a non-positive window.
const DefaultRateWindow = time.Minute

// windowCounter is the subset of Cache the limiter counts with.
type windowCounter interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimiter is a fixed-window request counter shared by every replica.
type RateLimiter struct {
	counter windowCounter
	limit   int64
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter allows limit requests per window for each identifier.
func NewRateLimiter(cache *Cache, limit int, window time.Duration) *RateLimiter {
	return newRateLimiter(cache, limit, window)
}

func newRateLimiter(counter windowCounter, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{counter: counter, limit: int64(limit), window: window, now: time.Now}
}

// Allow records one request for identifier and reports whether it fits.
func (l *RateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	n, err := l.counter.IncrWindow(ctx, RateLimitKey(identifier, bucket), l.window)
	if err != nil {
		return false, err
	}
	return n <= l.limit, nil
}
