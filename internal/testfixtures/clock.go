package testfixtures

import (
	"sync"
	"time"
)

// Clock is an injectable time source for tests. Cache expiry and the
// statistics' upcoming count both depend on the service's now func, so tests
// drive a Clock instead of the wall clock to stay deterministic.
type Clock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewClock returns a clock pinned to start, or to ReferenceTime when start is
// the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant the clock is pinned to.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// NowFunc adapts the clock to the `now func() time.Time` the calendar service
// takes. A nil clock degrades to the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d, returning the new instant. Tests use
// it to step past cache TTLs or across an event's start.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}
