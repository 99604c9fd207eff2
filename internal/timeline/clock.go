package timeline

import "time"

// Clock reports monotonic time since an arbitrary epoch.
type Clock interface {
	Now() time.Duration
}

// SystemClock measures from its creation using the monotonic clock.
type SystemClock struct {
	epoch time.Time
}

// NewSystemClock returns a clock whose epoch is now.
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

// Now returns the time elapsed since the epoch.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.epoch)
}
