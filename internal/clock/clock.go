// Package clock provides the single authoritative wall-clock time for the
// schedule engine. Commands can adjust it at runtime; the adjustment is kept
// as an offset over the host monotonic clock rather than a settimeofday call,
// which would need CAP_SYS_TIME and fight the host's own NTP sync.
package clock

import (
	"sync"
	"time"
)

// MinValidEpoch is the oldest timestamp the controller accepts as real time
// (2020-01-01T00:00:00Z). Anything earlier means the time base is untrusted
// — typically a Pi booting without RTC battery and without network.
const MinValidEpoch = 1577836800

// Clock is the adjustable wall clock. Safe for concurrent use.
type Clock struct {
	mu     sync.Mutex
	offset time.Duration
}

// New returns a clock tracking the host time with zero offset.
func New() *Clock {
	return &Clock{}
}

// Now returns the current adjusted time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Add(c.offset)
}

// Set adjusts the clock so that Now() reports t at this instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Sub(time.Now())
}

// Healthy reports whether the current time is at or past MinValidEpoch.
// No scheduler may be armed while the clock is unhealthy.
func (c *Clock) Healthy() bool {
	return c.Now().Unix() >= MinValidEpoch
}
