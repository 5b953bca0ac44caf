package clock

import (
	"testing"
	"time"
)

func TestClockSetShiftsNow(t *testing.T) {
	c := New()

	target := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.Set(target)

	got := c.Now()
	if diff := got.Sub(target); diff < 0 || diff > time.Second {
		t.Errorf("Now() = %v, want within 1s after %v", got, target)
	}
}

func TestClockHealthy(t *testing.T) {
	c := New()

	c.Set(time.Unix(0, 0)) // epoch, far below the minimum
	if c.Healthy() {
		t.Error("epoch time must be unhealthy")
	}

	c.Set(time.Unix(MinValidEpoch, 0))
	if !c.Healthy() {
		t.Error("minimum valid epoch must be healthy")
	}
}
