package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts map[string]int64
	ttls   []time.Duration
	err    error
}

func (f *fakeCounter) IncrWindow(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	f.ttls = append(f.ttls, ttl)
	return f.counts[key], nil
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 10, 0, time.UTC)
	counter := &fakeCounter{counts: map[string]int64{}}
	l := newRateLimiter(counter, 2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}

	now = now.Add(time.Minute)
	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts from zero")
}

func TestRateLimiter_NonPositiveWindow(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}}
	l := newRateLimiter(counter, 5, 0)
	assert.Equal(t, DefaultRateWindow, l.window)

	ok, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []time.Duration{DefaultRateWindow}, counter.ttls)

	assert.Equal(t, DefaultRateWindow, newRateLimiter(counter, 5, -time.Second).window)
}

func TestRateLimiter_BackendError(t *testing.T) {
	l := newRateLimiter(&fakeCounter{err: errors.New("redis: connection refused")}, 5, time.Minute)
	ok, err := l.Allow(context.Background(), "1.2.3.4")
	assert.Error(t, err)
	assert.False(t, ok)
}
