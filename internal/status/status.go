// Package status provides a thread-safe status tracker for the
// grow-controller daemon. It is read by the HTTP handlers and feeds the
// prometheus instruments.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/schedule"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	SerialDev   string
	StateFile   string
}

// ChannelStates holds the latest commanded relay states.
type ChannelStates struct {
	GrowLight   bool
	BloomLight  bool
	FarRed      bool
	Pump        bool
	FanThrottle bool
}

// TransitionCounts tracks relay transitions since startup.
type TransitionCounts struct {
	GrowOn, GrowOff     int
	BloomOn, BloomOff   int
	FarRedOn, FarRedOff int
	PumpOn, PumpOff     int
	FanOn, FanOff       int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Channels       ChannelStates
	GrowthPhase    int
	Bloom          schedule.BloomResult
	TemperatureC   float64
	TempValid      bool
	SensorFailures int
	ClockHealthy   bool
	MQTTConnected  bool
	Counts         TransitionCounts
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	metrics *Metrics
}

// NewTracker creates a Tracker with the given start time and config.
// metrics may be nil (e.g. in tests).
func NewTracker(startTime time.Time, cfg Config, metrics *Metrics) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:    startTime,
			Config:       cfg,
			ClockHealthy: true,
		},
		metrics: metrics,
	}
}

// SetChannel records one relay state, counting the transition if it changed.
func (t *Tracker) SetChannel(ch gpio.Channel, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.channelState(ch)
	t.setChannelState(ch, on)
	if prev != on {
		t.countTransition(ch, on)
	}
	if t.metrics != nil {
		t.metrics.setChannel(ch, on)
		if prev != on {
			t.metrics.countTransition(ch, on)
		}
	}
}

// SetGrowthPhase records the active growth phase index.
func (t *Tracker) SetGrowthPhase(index int) {
	t.mu.Lock()
	t.snap.GrowthPhase = index
	t.mu.Unlock()
}

// SetBloom records the latest bloom computation.
func (t *Tracker) SetBloom(res schedule.BloomResult) {
	t.mu.Lock()
	t.snap.Bloom = res
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.setBloom(res)
	}
}

// SetTemperature records a valid sensor reading.
func (t *Tracker) SetTemperature(celsius float64) {
	t.mu.Lock()
	t.snap.TemperatureC = celsius
	t.snap.TempValid = true
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.setTemperature(celsius)
	}
}

// SensorFailed counts a failed sensor read. The last temperature is kept.
func (t *Tracker) SensorFailed() {
	t.mu.Lock()
	t.snap.SensorFailures++
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.sensorFailed()
	}
}

// SetClockHealthy records the clock trust state.
func (t *Tracker) SetClockHealthy(healthy bool) {
	t.mu.Lock()
	t.snap.ClockHealthy = healthy
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.setClockHealthy(healthy)
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

func (t *Tracker) channelState(ch gpio.Channel) bool {
	switch ch {
	case gpio.GrowLight:
		return t.snap.Channels.GrowLight
	case gpio.BloomLight:
		return t.snap.Channels.BloomLight
	case gpio.FarRed:
		return t.snap.Channels.FarRed
	case gpio.Pump:
		return t.snap.Channels.Pump
	case gpio.FanThrottle:
		return t.snap.Channels.FanThrottle
	}
	return false
}

func (t *Tracker) setChannelState(ch gpio.Channel, on bool) {
	switch ch {
	case gpio.GrowLight:
		t.snap.Channels.GrowLight = on
	case gpio.BloomLight:
		t.snap.Channels.BloomLight = on
	case gpio.FarRed:
		t.snap.Channels.FarRed = on
	case gpio.Pump:
		t.snap.Channels.Pump = on
	case gpio.FanThrottle:
		t.snap.Channels.FanThrottle = on
	}
}

func (t *Tracker) countTransition(ch gpio.Channel, on bool) {
	c := &t.snap.Counts
	switch ch {
	case gpio.GrowLight:
		if on {
			c.GrowOn++
		} else {
			c.GrowOff++
		}
	case gpio.BloomLight:
		if on {
			c.BloomOn++
		} else {
			c.BloomOff++
		}
	case gpio.FarRed:
		if on {
			c.FarRedOn++
		} else {
			c.FarRedOff++
		}
	case gpio.Pump:
		if on {
			c.PumpOn++
		} else {
			c.PumpOff++
		}
	case gpio.FanThrottle:
		if on {
			c.FanOn++
		} else {
			c.FanOff++
		}
	}
}
