package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/schedule"
)

func newTestTracker() *Tracker {
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	return NewTracker(start, Config{Broker: "tcp://broker:1883", HTTPAddr: ":8080"},
		NewMetrics(prometheus.NewRegistry()))
}

func TestTrackerCountsTransitions(t *testing.T) {
	tr := newTestTracker()

	tr.SetChannel(gpio.GrowLight, true)
	tr.SetChannel(gpio.GrowLight, true) // no change, no count
	tr.SetChannel(gpio.GrowLight, false)
	tr.SetChannel(gpio.Pump, true)

	snap := tr.Snapshot()
	if snap.Counts.GrowOn != 1 || snap.Counts.GrowOff != 1 {
		t.Errorf("grow counts = %d/%d, want 1/1", snap.Counts.GrowOn, snap.Counts.GrowOff)
	}
	if snap.Counts.PumpOn != 1 {
		t.Errorf("pump on count = %d, want 1", snap.Counts.PumpOn)
	}
	if snap.Channels.GrowLight {
		t.Error("grow light should be off")
	}
	if !snap.Channels.Pump {
		t.Error("pump should be on")
	}
}

func TestTrackerInitialChannelOffIsNotATransition(t *testing.T) {
	tr := newTestTracker()

	// Boot drives every channel to a known state; commanding OFF on an
	// already-off channel must not count.
	tr.SetChannel(gpio.BloomLight, false)

	snap := tr.Snapshot()
	if snap.Counts.BloomOff != 0 {
		t.Errorf("bloom off count = %d, want 0", snap.Counts.BloomOff)
	}
}

func TestTrackerSensorStateHeldAcrossFailures(t *testing.T) {
	tr := newTestTracker()

	tr.SetTemperature(21.4)
	tr.SensorFailed()
	tr.SensorFailed()

	snap := tr.Snapshot()
	if !snap.TempValid || snap.TemperatureC != 21.4 {
		t.Errorf("temperature = (%v, %v), want held 21.4", snap.TemperatureC, snap.TempValid)
	}
	if snap.SensorFailures != 2 {
		t.Errorf("sensor failures = %d, want 2", snap.SensorFailures)
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	tr := newTestTracker()
	tr.SetChannel(gpio.FarRed, true)

	snap := tr.Snapshot()
	tr.SetChannel(gpio.FarRed, false)

	if !snap.Channels.FarRed {
		t.Error("snapshot mutated by later update")
	}
}

func TestFormatJSON(t *testing.T) {
	tr := newTestTracker()
	tr.SetChannel(gpio.BloomLight, true)
	tr.SetBloom(schedule.BloomResult{
		Status:          schedule.BloomActive,
		On:              true,
		CompletedCycles: 7,
		CalendarDays:    8,
	})
	tr.SetTemperature(22.5)
	tr.SetClockHealthy(true)

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Channels.BloomLight != "ON" {
		t.Errorf("bloom light = %q, want ON", sj.Status.Channels.BloomLight)
	}
	if sj.Status.Bloom.Status != "ACTIVE" || sj.Status.Bloom.CompletedCycles != 7 {
		t.Errorf("bloom json = %+v", sj.Status.Bloom)
	}
	if sj.Status.TemperatureC == nil || *sj.Status.TemperatureC != 22.5 {
		t.Errorf("temperature json = %v", sj.Status.TemperatureC)
	}
	if sj.Status.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("broker = %q", sj.Status.MQTT.Broker)
	}
}

func TestFormatStatusEventCarriesEventAndReason(t *testing.T) {
	tr := newTestTracker()

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason = %q/%q", sj.Status.Event, sj.Status.Reason)
	}
}

func TestTrackerWithoutMetrics(t *testing.T) {
	tr := NewTracker(time.Now(), Config{}, nil)
	tr.SetChannel(gpio.Pump, true)
	tr.SetBloom(schedule.BloomResult{})
	tr.SetTemperature(20)
	tr.SensorFailed()
	tr.SetClockHealthy(false)

	snap := tr.Snapshot()
	if !snap.Channels.Pump {
		t.Error("pump should be on")
	}
	if snap.ClockHealthy {
		t.Error("clock should be unhealthy")
	}
}
