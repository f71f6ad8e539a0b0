package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic wall clock for tests.
//
// Every Now call advances a fixed step from a fixed base, so two clocks
// built with the same parameters hand out identical times. Pass Now as
// the driver or recorder clock to make event timestamps reproducible
// across runs.
type Clock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewClock returns a clock based at 2024-06-01 12:00:00 UTC advancing
// one millisecond per Now call.
func NewClock() *Clock {
	return NewClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), time.Millisecond)
}

// NewClockAt returns a clock with an explicit base and step.
func NewClockAt(base time.Time, step time.Duration) *Clock {
	return &Clock{base: base, step: step}
}

// Now returns the next tick. The first call returns base+step, the
// second base+2*step, and so on.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * c.step)
}

// Current returns the last time handed out without advancing. Before
// the first Now call it returns the base.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(time.Duration(c.n) * c.step)
}

// Reset rewinds the clock to its base. The next Now call returns
// base+step again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
