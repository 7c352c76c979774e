package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0m"},
		{59, "0m"},
		{1800, "30m"},
		{3600, "1h"},
		{5400, "1h 30m"},
		{-5, "0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSeconds(tt.in), "seconds=%d", tt.in)
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "day", Plural(1, "day", "days"))
	assert.Equal(t, "days", Plural(0, "day", "days"))
	assert.Equal(t, "days", Plural(2, "day", "days"))
}

func TestWindows(t *testing.T) {
	now := time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 24, 18, 30, 0, 0, time.UTC), DaysAgo(now, 7))
	assert.Equal(t, time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC), MonthsAgo(now, 1))
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	assert.Equal(t, start, c.Now())
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
