package room

import "time"

// fakeClock is a controllable Clock for deterministic timer tests, the same
// seam game/mocks_test.go's MockPeriodicTickerChannelCreator serves for the
// teacher's tick source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}
