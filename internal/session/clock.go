package session

import "time"

// Clock measures seconds since its last reset, on the monotonic clock.
type Clock struct {
	t0 time.Time
}

// NewClock returns a clock reset to now.
func NewClock() *Clock {
	return &Clock{t0: time.Now()}
}

// Reset rewinds the clock to zero.
func (c *Clock) Reset() {
	c.t0 = time.Now()
}

// Seconds returns the time elapsed since the last reset.
func (c *Clock) Seconds() float64 {
	return time.Since(c.t0).Seconds()
}
