package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	values map[string]string
	calls  int
	err    error
}

func (f *fakeSource) GetString(_ context.Context, key string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func TestSessionStore_Lookup(t *testing.T) {
	src := &fakeSource{values: map[string]string{"session:tok": " user-1 \n"}}
	store := newSessionStore(src)

	userID, err := store.Lookup(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = store.Lookup(context.Background(), "other")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_EmptyValue(t *testing.T) {
	src := &fakeSource{values: map[string]string{"session:blank": ""}}
	_, err := newSessionStore(src).Lookup(context.Background(), "blank")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_BackendError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	_, err := newSessionStore(src).Lookup(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_LocalCache(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{values: map[string]string{"session:tok": "user-1"}}
	store := newSessionStore(src,
		WithLocalCache(16, time.Minute),
		WithSessionClock(func() time.Time { return now }),
	)

	for i := 0; i < 3; i++ {
		userID, err := store.Lookup(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	}
	assert.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	_, err := store.Lookup(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	// a revoked session survives only until the local entry expires
	delete(src.values, "session:tok")
	_, err = store.Lookup(context.Background(), "tok")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Lookup(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "session:abc", SessionKey("abc"))
	assert.Equal(t, "ratelimit:10.0.0.1:42", RateLimitKey("10.0.0.1", 42))
}
