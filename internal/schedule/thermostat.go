package schedule

// Thermostat is a two-threshold hysteresis controller for the exhaust-fan
// throttle. It trips to Throttled when the room cools to the minimum
// temperature and releases only once the reading strictly exceeds the
// minimum plus the hysteresis band, so readings inside the band never
// toggle the output.
//
// The thermostat is polled, not event-scheduled. An unavailable reading
// must not reach Process at all: the caller holds the last state and flags
// the read failure instead.
type Thermostat struct {
	minTemp    float64
	hysteresis float64
	throttled  bool
}

// NewThermostat creates a thermostat in the Normal state.
func NewThermostat(minTemp, hysteresis float64) *Thermostat {
	return &Thermostat{minTemp: minTemp, hysteresis: hysteresis}
}

// Process feeds one valid temperature reading and reports whether the
// output state changed.
func (t *Thermostat) Process(celsius float64) bool {
	if !t.throttled && celsius <= t.minTemp {
		t.throttled = true
		return true
	}
	if t.throttled && celsius > t.minTemp+t.hysteresis {
		t.throttled = false
		return true
	}
	return false
}

// Throttled returns the current output state.
func (t *Thermostat) Throttled() bool {
	return t.throttled
}
