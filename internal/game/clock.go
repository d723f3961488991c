package game

import (
	"time"
)

// DayFormat is the canonical key for per-day rows.
const DayFormat = "2006-01-02"

// Clock derives the authoritative "current day" from wall-clock time in
// the configured timezone. All daily bookkeeping keys off Today.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock loads the named timezone. An empty name falls back to the
// reference timezone, Australia/Sydney.
func NewClock(tz string) (*Clock, error) {
	if tz == "" {
		tz = "Australia/Sydney"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// FixedClock returns a clock pinned to the given instant, for tests.
func FixedClock(t time.Time, loc *time.Location) *Clock {
	return &Clock{loc: loc, now: func() time.Time { return t }}
}

// Today returns the current local date key.
func (c *Clock) Today() string {
	return c.now().In(c.loc).Format(DayFormat)
}

// Now returns the current time in the game timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// UntilReset returns the duration until the next local midnight, when
// the daily budget refreshes.
func (c *Clock) UntilReset() time.Duration {
	now := c.now().In(c.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc).AddDate(0, 0, 1)
	return next.Sub(now)
}
