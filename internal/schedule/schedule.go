// Package schedule contains the pure time arithmetic for the enclosure
// schedulers. This package has NO external dependencies (no GPIO, MQTT, OS,
// or time.Sleep). Time is always injectable via time.Time parameters, so
// every computation is re-derivable at any instant.
package schedule

import "time"

// GrowthConfig describes the fixed daily repeating growth-light pattern.
type GrowthConfig struct {
	// Periods alternates lit/dark spans starting with a lit span.
	// Must have even length >= 2 and sum to exactly 24h.
	Periods []time.Duration

	// StartHour and StartMinute anchor Periods[0] each day.
	StartHour   int
	StartMinute int
}

// BloomConfig describes the drifting two-state bloom-light cycle.
type BloomConfig struct {
	// On and Off are the nominal lit and dark spans of one bloom day.
	On  time.Duration
	Off time.Duration

	// DayReduction shortens the lit span and NightProlong lengthens the
	// dark span, each applied once per cycle after DriftStartDay cycles
	// have completed.
	DayReduction  time.Duration
	NightProlong  time.Duration
	DriftStartDay int

	// MaxDays is the safety cutoff: once this many wall-clock days have
	// elapsed since the bloom start, bloom mode is disabled.
	MaxDays int
}

// FarRedConfig describes the far-red window straddling each bloom OFF fold.
type FarRedConfig struct {
	Pre  time.Duration // window opens this long before the OFF fold
	Post time.Duration // window closes this long after the OFF fold
}

// IrrigationConfig describes the pump duty cycle.
type IrrigationConfig struct {
	On  time.Duration
	Off time.Duration
}

// litSpan returns the effective lit span for the given completed-cycle count.
func (c BloomConfig) litSpan(cycles int) time.Duration {
	if cycles >= c.DriftStartDay {
		return c.On - c.DayReduction
	}
	return c.On
}

// darkSpan returns the effective dark span for the given completed-cycle count.
func (c BloomConfig) darkSpan(cycles int) time.Duration {
	if cycles >= c.DriftStartDay {
		return c.Off + c.NightProlong
	}
	return c.Off
}
