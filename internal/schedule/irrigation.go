package schedule

import "time"

// IrrigationPhase computes the pump duty-cycle state from the time elapsed
// since boot. The cycle is independent of the wall clock and restarts at
// phase zero on every boot; there is no persistence.
func IrrigationPhase(cfg IrrigationConfig, elapsed time.Duration) (on bool, next time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	cycle := cfg.On + cfg.Off
	pos := elapsed % cycle
	if pos < cfg.On {
		return true, cfg.On - pos
	}
	return false, cycle - pos
}
