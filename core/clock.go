package core

import "time"

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock supplies the current time. Every component that needs "now" takes a
// Clock so tests can pin the reference year, the 24h fraud window, and
// off-hours boundaries deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. For tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// NewFixedClock pins the clock to midnight UTC of the given date.
func NewFixedClock(year int, month time.Month, day int) FixedClock {
	return FixedClock{At: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Date builds a date-only timestamp (midnight UTC). Hire dates carry no time
// component.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
