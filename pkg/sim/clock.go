package sim

import (
	"sync"
	"time"
)

// ManualClock is a clock only advanced by Sleep and Advance.
type ManualClock struct {
	// OnSleep is called after time advanced by Sleep, optional.
	OnSleep func(now time.Time)

	lock  sync.Mutex
	now   time.Time
	slept time.Duration
}

// NewManualClock creates a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now implements device.Clock.
func (c *ManualClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Sleep implements device.Clock.
func (c *ManualClock) Sleep(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.lock.Lock()
	c.now = c.now.Add(d)
	c.slept += d
	now := c.now
	c.lock.Unlock()
	if fn := c.OnSleep; fn != nil {
		fn(now)
	}
}

// Advance moves time forward without counting as sleep.
func (c *ManualClock) Advance(d time.Duration) {
	c.lock.Lock()
	c.now = c.now.Add(d)
	c.lock.Unlock()
}

// Slept returns the total time slept.
func (c *ManualClock) Slept() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.slept
}
