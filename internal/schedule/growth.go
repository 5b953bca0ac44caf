package schedule

import "time"

// GrowthPhase computes the active growth-light phase at now.
// It walks an accumulator forward from yesterday's daily anchor through the
// configured periods with 0-based modular wraparound. The returned index is
// the period containing now; next is the time remaining in it and is always
// strictly positive. Even index means the grow light is lit.
//
// The walk is bounded because the periods sum to exactly one day: at most
// two full cycles separate yesterday's anchor from now.
func GrowthPhase(cfg GrowthConfig, now time.Time) (index int, next time.Duration) {
	anchor := time.Date(now.Year(), now.Month(), now.Day(),
		cfg.StartHour, cfg.StartMinute, 0, 0, now.Location())
	anchor = anchor.AddDate(0, 0, -1)

	acc := anchor
	i := 0
	for {
		end := acc.Add(cfg.Periods[i])
		if end.After(now) {
			return i, end.Sub(now)
		}
		acc = end
		i = (i + 1) % len(cfg.Periods)
	}
}

// GrowthLit reports whether the grow light is lit in the given phase.
func GrowthLit(index int) bool {
	return index%2 == 0
}
