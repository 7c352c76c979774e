package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITING
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter decides whether a client may make one more request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalRateLimiter is a per-client token bucket kept in process memory.
// Client buckets live in a bounded LRU so idle clients are forgotten.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache
	every    rate.Limit
	burst    int
}

// NewLocalRateLimiter allows perMinute requests per client, tracking at most
// maxClients clients at once.
func NewLocalRateLimiter(perMinute, maxClients int) (*LocalRateLimiter, error) {
	if maxClients <= 0 {
		maxClients = 10000
	}
	cache, err := lru.New(maxClients)
	if err != nil {
		return nil, err
	}
	return &LocalRateLimiter{
		limiters: cache,
		every:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}, nil
}

// Allow implements RateLimiter.
func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, ok := l.limiters.Get(key)
	if !ok {
		v = rate.NewLimiter(l.every, l.burst)
		l.limiters.Add(key, v)
	}
	l.mu.Unlock()
	return v.(*rate.Limiter).Allow(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HEADERS
// ══════════════════════════════════════════════════════════════════════════════

// NoCacheMiddleware prevents caching. Leaderboards are per-caller and live.
func NoCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, private")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware adds security-related headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// RetryAfter formats a wait as whole seconds for the Retry-After header.
func RetryAfter(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// MiddlewareFunc is a function that wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain chains multiple middleware functions. The first one runs outermost.
func Chain(middlewares ...MiddlewareFunc) MiddlewareFunc {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ChainHandler chains middleware and wraps a final handler.
func ChainHandler(handler http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	return Chain(middlewares...)(handler)
}
