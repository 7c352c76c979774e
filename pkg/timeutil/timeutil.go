// Package timeutil provides time helpers for Focus Hub: an injectable clock,
// rolling window boundaries and compact duration formatting.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock abstracts the current time so callers can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant until moved.
type FixedClock struct {
	mu sync.RWMutex
	t  time.Time
}

// NewFixedClock creates a clock pinned to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// Advance moves the pinned instant forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLLING WINDOWS
// ══════════════════════════════════════════════════════════════════════════════

// DaysAgo returns t shifted back by n whole days.
func DaysAgo(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, -n)
}

// MonthsAgo returns t shifted back by n calendar months.
// Day overflow is normalized by time.AddDate (Mar 31 - 1 month = Mar 3 or 2).
func MonthsAgo(t time.Time, n int) time.Time {
	return t.AddDate(0, -n, 0)
}

// ══════════════════════════════════════════════════════════════════════════════
// FORMATTING
// ══════════════════════════════════════════════════════════════════════════════

// FormatSeconds renders a duration given in seconds as "1h 30m", "45m" or "0m".
// Seconds below a full minute are dropped.
func FormatSeconds(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60
	minutes %= 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Plural picks the singular or plural noun for n.
func Plural(n int64, one, many string) string {
	if n == 1 || n == -1 {
		return one
	}
	return many
}
