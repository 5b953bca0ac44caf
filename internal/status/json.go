package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Channels      ChannelsJSON `json:"channels"`
	GrowthPhase   int          `json:"growth_phase"`
	Bloom         BloomJSON    `json:"bloom"`
	TemperatureC  *float64     `json:"temperature_c,omitempty"`
	ClockHealthy  bool         `json:"clock_healthy"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"transition_counts"`
	Config        ConfigJSON   `json:"config"`
}

// ChannelsJSON is the JSON representation of the relay states.
type ChannelsJSON struct {
	GrowLight   string `json:"grow_light"`
	BloomLight  string `json:"bloom_light"`
	FarRed      string `json:"far_red"`
	Pump        string `json:"pump"`
	FanThrottle string `json:"fan_throttle"`
}

// BloomJSON is the JSON representation of the bloom scheduler state.
type BloomJSON struct {
	Status          string `json:"status"`
	CompletedCycles int    `json:"completed_cycles"`
	CalendarDays    int    `json:"calendar_days"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	GrowOn    int `json:"grow_on"`
	GrowOff   int `json:"grow_off"`
	BloomOn   int `json:"bloom_on"`
	BloomOff  int `json:"bloom_off"`
	FarRedOn  int `json:"far_red_on"`
	FarRedOff int `json:"far_red_off"`
	PumpOn    int `json:"pump_on"`
	PumpOff   int `json:"pump_off"`
	FanOn     int `json:"fan_on"`
	FanOff    int `json:"fan_off"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	SerialDev   string `json:"serial_dev"`
	StateFile   string `json:"state_file"`
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Channels: ChannelsJSON{
			GrowLight:   onOff(snap.Channels.GrowLight),
			BloomLight:  onOff(snap.Channels.BloomLight),
			FarRed:      onOff(snap.Channels.FarRed),
			Pump:        onOff(snap.Channels.Pump),
			FanThrottle: onOff(snap.Channels.FanThrottle),
		},
		GrowthPhase: snap.GrowthPhase,
		Bloom: BloomJSON{
			Status:          snap.Bloom.Status.String(),
			CompletedCycles: snap.Bloom.CompletedCycles,
			CalendarDays:    snap.Bloom.CalendarDays,
		},
		ClockHealthy:  snap.ClockHealthy,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			GrowOn:    snap.Counts.GrowOn,
			GrowOff:   snap.Counts.GrowOff,
			BloomOn:   snap.Counts.BloomOn,
			BloomOff:  snap.Counts.BloomOff,
			FarRedOn:  snap.Counts.FarRedOn,
			FarRedOff: snap.Counts.FarRedOff,
			PumpOn:    snap.Counts.PumpOn,
			PumpOff:   snap.Counts.PumpOff,
			FanOn:     snap.Counts.FanOn,
			FanOff:    snap.Counts.FanOff,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			SerialDev:   snap.Config.SerialDev,
			StateFile:   snap.Config.StateFile,
		},
	}
	if snap.TempValid {
		temp := snap.TemperatureC
		inner.TemperatureC = &temp
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
