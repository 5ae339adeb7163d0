package shared

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout renders instants the way the admin UI expects them:
// ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// FixedClock is a manually advanced clock for tests.
type FixedClock struct {
	T time.Time
}

// Now returns the stored instant.
func (c *FixedClock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

// IDGenerator returns a fresh unique identifier for a new row.
type IDGenerator func() string

// NewID generates a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// FormatTimestamp renders t using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
