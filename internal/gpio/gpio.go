// Package gpio provides relay output control with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Channel identifies one relay output.
type Channel int

const (
	GrowLight Channel = iota
	BloomLight
	FarRed
	Pump
	FanThrottle
)

// Channels lists every relay output in display order.
var Channels = []Channel{GrowLight, BloomLight, FarRed, Pump, FanThrottle}

func (c Channel) String() string {
	switch c {
	case GrowLight:
		return "grow_light"
	case BloomLight:
		return "bloom_light"
	case FarRed:
		return "far_red"
	case Pump:
		return "pump"
	case FanThrottle:
		return "fan_throttle"
	}
	return "unknown"
}

// Outputs drives the relay channels.
type Outputs interface {
	// Set energizes (true) or releases (false) one relay.
	// The raw line values are inverted: the relay board is active-low.
	Set(ch Channel, on bool) error

	// Close releases all relays and GPIO resources.
	Close() error
}

// Pins assigns BCM pin numbers to the relay channels.
type Pins struct {
	GrowLight   int
	BloomLight  int
	FarRed      int
	Pump        int
	FanThrottle int
}

// Default pin assignments (BCM numbering).
var DefaultPins = Pins{
	GrowLight:   5,
	BloomLight:  6,
	FarRed:      13,
	Pump:        19,
	FanThrottle: 26,
}

func (p Pins) pin(ch Channel) int {
	switch ch {
	case GrowLight:
		return p.GrowLight
	case BloomLight:
		return p.BloomLight
	case FarRed:
		return p.FarRed
	case Pump:
		return p.Pump
	case FanThrottle:
		return p.FanThrottle
	}
	return -1
}
