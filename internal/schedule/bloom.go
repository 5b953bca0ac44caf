package schedule

import "time"

// BloomStatus classifies the bloom scheduler's mode at a query instant.
type BloomStatus int

const (
	// BloomDisabled means no bloom start is set; the bloom and far-red
	// schedulers produce no output changes and must not be armed.
	BloomDisabled BloomStatus = iota

	// BloomPending means the bloom start lies in the future; the light is
	// dark and the next transition is the start instant itself.
	BloomPending

	// BloomActive means the cycle walk is running.
	BloomActive

	// BloomExpired means the wall-clock day count has reached MaxDays;
	// the caller must clear the persisted bloom start.
	BloomExpired
)

func (s BloomStatus) String() string {
	switch s {
	case BloomDisabled:
		return "DISABLED"
	case BloomPending:
		return "PENDING"
	case BloomActive:
		return "ACTIVE"
	case BloomExpired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// BloomResult is the bloom scheduler's answer for one query instant.
type BloomResult struct {
	Status BloomStatus

	// On is the current lit state. Meaningful for Pending and Active.
	On bool

	// Next is the time until the next fold (or until the start instant
	// when Pending). Strictly positive for Pending and Active.
	Next time.Duration

	// CompletedCycles counts full lit+dark cycles completed since start.
	// It increments only at the dark-to-lit fold.
	CompletedCycles int

	// CalendarDays is wall-clock 24h days elapsed since start. This is a
	// distinct quantity from CompletedCycles: a bloom cycle is generally
	// not 24h long, and only CalendarDays feeds the MaxDays cutoff.
	CalendarDays int
}

// EvaluateBloom computes the bloom-light state at now for a cycle anchored at
// start. The walk alternates lit and dark spans from the start instant, with
// the first lit span beginning exactly at start. Once CompletedCycles reaches
// DriftStartDay, each cycle's lit span shrinks by DayReduction and its dark
// span grows by NightProlong, so the fold instants drift relative to the
// wall clock. Forward progress is guaranteed because both effective spans are
// validated strictly positive at configuration load.
func EvaluateBloom(cfg BloomConfig, start, now time.Time) BloomResult {
	if start.IsZero() {
		return BloomResult{Status: BloomDisabled}
	}
	if start.After(now) {
		return BloomResult{Status: BloomPending, Next: start.Sub(now)}
	}

	days := int(now.Sub(start) / (24 * time.Hour))
	if days >= cfg.MaxDays {
		return BloomResult{Status: BloomExpired, CalendarDays: days}
	}

	acc := start
	cycles := 0
	for {
		end := acc.Add(cfg.litSpan(cycles))
		if end.After(now) {
			return BloomResult{
				Status:          BloomActive,
				On:              true,
				Next:            end.Sub(now),
				CompletedCycles: cycles,
				CalendarDays:    days,
			}
		}
		acc = end

		end = acc.Add(cfg.darkSpan(cycles))
		if end.After(now) {
			return BloomResult{
				Status:          BloomActive,
				On:              false,
				Next:            end.Sub(now),
				CompletedCycles: cycles,
				CalendarDays:    days,
			}
		}
		acc = end
		cycles++
	}
}
