package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

// ErrSessionNotFound is returned for unknown or expired tokens.
var ErrSessionNotFound = shared.NewDomainError("auth", "LookupSession", shared.ErrUnauthorized, "session not found")

// stringGetter is the subset of Cache the session store reads through.
type stringGetter interface {
	GetString(ctx context.Context, key string) (string, error)
}

// SessionStore resolves opaque session tokens issued by the auth service.
// The auth service writes "session:<token>" -> "<userID>" with its own TTL;
// this side only reads. Resolved tokens are kept in a small local LRU so a
// burst of requests from one client costs one Redis round trip.
type SessionStore struct {
	source stringGetter
	local  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
}

type cachedSession struct {
	userID  string
	expires time.Time
}

// SessionStoreOption configures a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithLocalCache enables the in-process LRU with size entries living for ttl.
func WithLocalCache(size int, ttl time.Duration) SessionStoreOption {
	return func(s *SessionStore) {
		if size <= 0 || ttl <= 0 {
			return
		}
		c, err := lru.New(size)
		if err != nil {
			return
		}
		s.local = c
		s.ttl = ttl
	}
}

// WithSessionClock replaces time.Now; intended for tests.
func WithSessionClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore creates a session store reading from cache.
func NewSessionStore(cache *Cache, opts ...SessionStoreOption) *SessionStore {
	return newSessionStore(cache, opts...)
}

func newSessionStore(source stringGetter, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{source: source, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the user the token belongs to.
func (s *SessionStore) Lookup(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrSessionNotFound
	}

	if s.local != nil {
		if v, ok := s.local.Get(token); ok {
			entry := v.(cachedSession)
			if s.now().Before(entry.expires) {
				return entry.userID, nil
			}
			s.local.Remove(token)
		}
	}

	val, err := s.source.GetString(ctx, SessionKey(token))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("session lookup: %w", err)
	}

	userID := strings.TrimSpace(val)
	if userID == "" {
		return "", ErrSessionNotFound
	}

	if s.local != nil {
		s.local.Add(token, cachedSession{userID: userID, expires: s.now().Add(s.ttl)})
	}
	return userID, nil
}
