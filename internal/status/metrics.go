package status

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/schedule"
)

// Metrics holds the prometheus instruments for the daemon.
type Metrics struct {
	channelState      *prometheus.GaugeVec
	transitions       *prometheus.CounterVec
	temperature       prometheus.Gauge
	sensorFailures    prometheus.Counter
	bloomCycles       prometheus.Gauge
	bloomCalendarDays prometheus.Gauge
	clockHealthy      prometheus.Gauge
}

// NewMetrics creates and registers the instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		channelState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grow_channel_state",
			Help: "Current relay state per channel (1 = on).",
		}, []string{"channel"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grow_channel_transitions_total",
			Help: "Relay transitions since startup.",
		}, []string{"channel", "state"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grow_room_temperature_celsius",
			Help: "Last valid room temperature reading.",
		}),
		sensorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grow_sensor_read_failures_total",
			Help: "Failed temperature sensor reads.",
		}),
		bloomCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grow_bloom_completed_cycles",
			Help: "Completed bloom day cycles since the bloom start.",
		}),
		bloomCalendarDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grow_bloom_calendar_days",
			Help: "Wall-clock days elapsed since the bloom start.",
		}),
		clockHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grow_clock_healthy",
			Help: "Whether the time base is trusted (1 = healthy).",
		}),
	}

	reg.MustRegister(m.channelState, m.transitions, m.temperature,
		m.sensorFailures, m.bloomCycles, m.bloomCalendarDays, m.clockHealthy)
	return m
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m *Metrics) setChannel(ch gpio.Channel, on bool) {
	m.channelState.WithLabelValues(ch.String()).Set(boolGauge(on))
}

func (m *Metrics) countTransition(ch gpio.Channel, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	m.transitions.WithLabelValues(ch.String(), state).Inc()
}

func (m *Metrics) setTemperature(celsius float64) {
	m.temperature.Set(celsius)
}

func (m *Metrics) sensorFailed() {
	m.sensorFailures.Inc()
}

func (m *Metrics) setBloom(res schedule.BloomResult) {
	m.bloomCycles.Set(float64(res.CompletedCycles))
	m.bloomCalendarDays.Set(float64(res.CalendarDays))
}

func (m *Metrics) setClockHealthy(healthy bool) {
	m.clockHealthy.Set(boolGauge(healthy))
}
