package schedule

import "time"

// FarRedResult is the far-red scheduler's answer for one query instant.
type FarRedResult struct {
	// On is the current far-red lit state.
	On bool

	// Next is the time until the window opens (when Off) or closes (when
	// On). Zero when bloom mode is disabled or expired, in which case the
	// far-red scheduler must not be armed.
	Next time.Duration
}

// FarRedWindow derives the far-red state from the bloom scheduler's latest
// result; it never walks time itself. The window opens cfg.Pre before each
// bloom OFF fold and closes cfg.Post after it. Configuration validation
// keeps the window narrower than the adjacent bloom spans, so the two
// half-windows cannot reach the neighbouring ON fold.
func FarRedWindow(cfg FarRedConfig, bloom BloomConfig, b BloomResult) FarRedResult {
	switch b.Status {
	case BloomDisabled, BloomExpired:
		return FarRedResult{}

	case BloomPending:
		// First OFF fold is one lit span past the start instant.
		toOff := b.Next + bloom.litSpan(0)
		return FarRedResult{Next: toOff - cfg.Pre}

	case BloomActive:
		if b.On {
			if b.Next <= cfg.Pre {
				// Leading half: window closes Post after the fold.
				return FarRedResult{On: true, Next: b.Next + cfg.Post}
			}
			return FarRedResult{Next: b.Next - cfg.Pre}
		}

		// Dark span: how far past the OFF fold are we?
		sinceFold := bloom.darkSpan(b.CompletedCycles) - b.Next
		if sinceFold < cfg.Post {
			return FarRedResult{On: true, Next: cfg.Post - sinceFold}
		}

		// Next OFF fold is the upcoming lit span after the dark span
		// ends; the dark-to-lit fold increments the cycle count.
		toOff := b.Next + bloom.litSpan(b.CompletedCycles+1)
		return FarRedResult{Next: toOff - cfg.Pre}
	}
	return FarRedResult{}
}
