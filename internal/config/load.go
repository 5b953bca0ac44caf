package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path over the built-in defaults and validates
// the result. An empty path returns validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every schedule constraint. Any failure here is fatal at
// startup: the engine must not arm a single timer on a bad schedule.
func (c *Config) Validate() error {
	n := len(c.Growth.PeriodsMinutes)
	if n < 2 || n%2 != 0 {
		return fmt.Errorf("growth periods: length %d, want even and >= 2", n)
	}
	sum := 0
	for i, p := range c.Growth.PeriodsMinutes {
		if p <= 0 {
			return fmt.Errorf("growth periods[%d]: %d minutes, want > 0", i, p)
		}
		sum += p
	}
	if sum != 24*60 {
		// A schedule not summing to a day drifts the daily anchor on
		// every cycle; reject it here rather than detect it at runtime.
		return fmt.Errorf("growth periods sum to %d minutes, want exactly 1440", sum)
	}
	if _, _, err := parseStart(c.Growth.Start); err != nil {
		return err
	}

	if c.Bloom.OnMinutes <= 0 || c.Bloom.OffMinutes <= 0 {
		return fmt.Errorf("bloom periods (%d, %d) minutes, want both > 0",
			c.Bloom.OnMinutes, c.Bloom.OffMinutes)
	}
	if c.Bloom.DayReductionMinutes < 0 || c.Bloom.NightProlongMinutes < 0 {
		return fmt.Errorf("bloom drift (%d, %d) minutes, want both >= 0",
			c.Bloom.DayReductionMinutes, c.Bloom.NightProlongMinutes)
	}
	if c.Bloom.DayReductionMinutes >= c.Bloom.OnMinutes {
		// The drifted lit span must stay strictly positive or the
		// cycle walk loses forward progress.
		return fmt.Errorf("bloom day reduction %d must be < on period %d",
			c.Bloom.DayReductionMinutes, c.Bloom.OnMinutes)
	}
	if c.Bloom.DriftStartDay < 0 {
		return fmt.Errorf("bloom drift start day %d, want >= 0", c.Bloom.DriftStartDay)
	}
	if c.Bloom.MaxDays <= 0 {
		return fmt.Errorf("bloom max days %d, want > 0", c.Bloom.MaxDays)
	}

	if c.FarRed.PreMinutes < 0 || c.FarRed.PostMinutes < 0 {
		return fmt.Errorf("far-red window (%d, %d) minutes, want both >= 0",
			c.FarRed.PreMinutes, c.FarRed.PostMinutes)
	}
	if c.FarRed.PreMinutes >= c.Bloom.OnMinutes-c.Bloom.DayReductionMinutes {
		// The leading half must not reach back past the bloom ON fold.
		return fmt.Errorf("far-red pre window %d must be < drifted bloom lit span %d",
			c.FarRed.PreMinutes, c.Bloom.OnMinutes-c.Bloom.DayReductionMinutes)
	}
	if c.FarRed.PostMinutes >= c.Bloom.OffMinutes {
		// The trailing half must not reach the next bloom ON fold.
		return fmt.Errorf("far-red post window %d must be < bloom dark span %d",
			c.FarRed.PostMinutes, c.Bloom.OffMinutes)
	}

	if c.Irrigation.OnSeconds <= 0 || c.Irrigation.OffSeconds <= 0 {
		return fmt.Errorf("irrigation periods (%d, %d) seconds, want both > 0",
			c.Irrigation.OnSeconds, c.Irrigation.OffSeconds)
	}

	if c.Fan.HysteresisK < 0 {
		return fmt.Errorf("fan hysteresis %v, want >= 0", c.Fan.HysteresisK)
	}

	pins := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"grow_light", c.Pins.GrowLight},
		{"bloom_light", c.Pins.BloomLight},
		{"far_red", c.Pins.FarRed},
		{"pump", c.Pins.Pump},
		{"fan_throttle", c.Pins.FanThrottle},
	} {
		if p.pin < 0 {
			return fmt.Errorf("pin %s: %d, want >= 0", p.name, p.pin)
		}
		if other, dup := pins[p.pin]; dup {
			return fmt.Errorf("pin %s and %s both assigned to BCM %d", other, p.name, p.pin)
		}
		pins[p.pin] = p.name
	}

	if c.StateFile == "" {
		return fmt.Errorf("state_file must be set")
	}
	return nil
}
