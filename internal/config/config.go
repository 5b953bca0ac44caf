// Package config defines the grow-controller schedule configuration model.
//
// Configuration is immutable for a run: it is loaded from a YAML file at
// startup, merged over built-in defaults, and validated before any scheduler
// is armed. A validation failure is fatal — a growth schedule that does not
// sum to a full day would drift its daily anchor permanently, so it must
// never reach the engine.
package config

import (
	"fmt"
	"time"

	"github.com/sweeney/grow-controller/internal/schedule"
)

// Config holds every schedule and hardware parameter for the daemon.
type Config struct {
	Growth     Growth     `yaml:"growth"`
	Bloom      Bloom      `yaml:"bloom"`
	FarRed     FarRed     `yaml:"far_red"`
	Irrigation Irrigation `yaml:"irrigation"`
	Fan        Fan        `yaml:"fan"`
	Pins       Pins       `yaml:"pins"`
	Sensor     Sensor     `yaml:"sensor"`

	// StateFile is where the bloom-start timestamp persists across
	// power loss.
	StateFile string `yaml:"state_file"`
}

// Growth configures the fixed daily grow-light pattern.
type Growth struct {
	// PeriodsMinutes alternates lit/dark spans starting lit; even length,
	// at least two entries, summing to exactly 1440.
	PeriodsMinutes []int `yaml:"periods_minutes"`

	// Start is the wall-clock "HH:MM" at which the first period begins.
	Start string `yaml:"start"`
}

// Bloom configures the drifting bloom-light cycle.
type Bloom struct {
	OnMinutes           int `yaml:"on_minutes"`
	OffMinutes          int `yaml:"off_minutes"`
	DayReductionMinutes int `yaml:"day_reduction_minutes"`
	NightProlongMinutes int `yaml:"night_prolong_minutes"`
	DriftStartDay       int `yaml:"drift_start_day"`
	MaxDays             int `yaml:"max_days"`
}

// FarRed configures the window straddling each bloom OFF fold.
type FarRed struct {
	PreMinutes  int `yaml:"pre_minutes"`
	PostMinutes int `yaml:"post_minutes"`
}

// Irrigation configures the pump duty cycle.
type Irrigation struct {
	OnSeconds  int `yaml:"on_seconds"`
	OffSeconds int `yaml:"off_seconds"`
}

// Fan configures the exhaust-fan throttle thermostat.
type Fan struct {
	MinRoomTempC float64 `yaml:"min_room_temp_c"`
	HysteresisK  float64 `yaml:"hysteresis_k"`
}

// Pins assigns BCM pin numbers to the relay channels.
type Pins struct {
	GrowLight   int `yaml:"grow_light"`
	BloomLight  int `yaml:"bloom_light"`
	FarRed      int `yaml:"far_red"`
	Pump        int `yaml:"pump"`
	FanThrottle int `yaml:"fan_throttle"`
}

// Sensor selects the room temperature sensor.
type Sensor struct {
	// DeviceID is the 1-wire device id (e.g. "28-0316a2794bff").
	// Empty means use the first DS18B20 found on the bus.
	DeviceID string `yaml:"device_id"`
}

// Default returns the built-in configuration matching the original device
// firmware constants.
func Default() *Config {
	return &Config{
		Growth: Growth{
			PeriodsMinutes: []int{720, 330, 60, 330},
			Start:          "16:20",
		},
		Bloom: Bloom{
			OnMinutes:           780,
			OffMinutes:          690,
			DayReductionMinutes: 2,
			NightProlongMinutes: 2,
			DriftStartDay:       14,
			MaxDays:             90,
		},
		FarRed: FarRed{
			PreMinutes:  10,
			PostMinutes: 15,
		},
		Irrigation: Irrigation{
			OnSeconds:  120,
			OffSeconds: 1800,
		},
		Fan: Fan{
			MinRoomTempC: 23,
			HysteresisK:  2,
		},
		Pins: Pins{
			GrowLight:   5,
			BloomLight:  6,
			FarRed:      13,
			Pump:        19,
			FanThrottle: 26,
		},
		StateFile: "/var/lib/grow-controller/bloom-start",
	}
}

// GrowthSchedule converts the growth section to engine form.
// Call only after Validate.
func (c *Config) GrowthSchedule() schedule.GrowthConfig {
	h, m, _ := parseStart(c.Growth.Start)
	periods := make([]time.Duration, len(c.Growth.PeriodsMinutes))
	for i, p := range c.Growth.PeriodsMinutes {
		periods[i] = time.Duration(p) * time.Minute
	}
	return schedule.GrowthConfig{Periods: periods, StartHour: h, StartMinute: m}
}

// BloomSchedule converts the bloom section to engine form.
func (c *Config) BloomSchedule() schedule.BloomConfig {
	return schedule.BloomConfig{
		On:            time.Duration(c.Bloom.OnMinutes) * time.Minute,
		Off:           time.Duration(c.Bloom.OffMinutes) * time.Minute,
		DayReduction:  time.Duration(c.Bloom.DayReductionMinutes) * time.Minute,
		NightProlong:  time.Duration(c.Bloom.NightProlongMinutes) * time.Minute,
		DriftStartDay: c.Bloom.DriftStartDay,
		MaxDays:       c.Bloom.MaxDays,
	}
}

// FarRedSchedule converts the far-red section to engine form.
func (c *Config) FarRedSchedule() schedule.FarRedConfig {
	return schedule.FarRedConfig{
		Pre:  time.Duration(c.FarRed.PreMinutes) * time.Minute,
		Post: time.Duration(c.FarRed.PostMinutes) * time.Minute,
	}
}

// IrrigationSchedule converts the irrigation section to engine form.
func (c *Config) IrrigationSchedule() schedule.IrrigationConfig {
	return schedule.IrrigationConfig{
		On:  time.Duration(c.Irrigation.OnSeconds) * time.Second,
		Off: time.Duration(c.Irrigation.OffSeconds) * time.Second,
	}
}

func parseStart(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("growth start %q: want HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
