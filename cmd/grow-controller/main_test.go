package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/grow-controller/internal/clock"
	"github.com/sweeney/grow-controller/internal/config"
	"github.com/sweeney/grow-controller/internal/engine"
	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/mqtt"
	"github.com/sweeney/grow-controller/internal/schedule"
	"github.com/sweeney/grow-controller/internal/sensor"
	"github.com/sweeney/grow-controller/internal/status"
	"github.com/sweeney/grow-controller/internal/store"
)

type fixture struct {
	d         *daemon
	outputs   *gpio.FakeOutputs
	publisher *mqtt.FakePublisher
	store     *store.FakeStore
	serial    *bytes.Buffer
}

func newFixture(t *testing.T, bootTime time.Time) *fixture {
	t.Helper()
	cfg := config.Default()
	eng := engine.New(cfg.GrowthSchedule(), cfg.BloomSchedule(),
		cfg.FarRedSchedule(), cfg.IrrigationSchedule(), bootTime)

	f := &fixture{
		outputs:   gpio.NewFakeOutputs(),
		publisher: mqtt.NewFakePublisher(),
		store:     store.NewFakeStore(),
		serial:    &bytes.Buffer{},
	}
	tracker := status.NewTracker(bootTime, status.Config{}, nil)
	f.d = newDaemon(eng, f.outputs, f.publisher, tracker, f.store,
		clock.New(), schedule.NewThermostat(cfg.Fan.MinRoomTempC, cfg.Fan.HysteresisK),
		f.serial)
	return f
}

func TestBootstrapDrivesOutputsAndArmsTimers(t *testing.T) {
	// 17:00 is 40 minutes into the default 16:20 schedule: first period,
	// lit. No bloom start, so bloom and far-red are forced off.
	now := time.Date(2026, 4, 1, 17, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.d.apply(f.d.eng.Bootstrap(now), now)

	if !f.outputs.States[gpio.GrowLight] {
		t.Error("grow light should be on")
	}
	if f.outputs.States[gpio.BloomLight] || f.outputs.States[gpio.FarRed] {
		t.Error("bloom and far-red should be off without a bloom start")
	}
	if !f.outputs.States[gpio.Pump] {
		t.Error("pump should be on at the start of the duty cycle")
	}

	// Stop reports whether the timer was armed.
	if !f.d.timers[engine.Growth].Stop() {
		t.Error("growth timer should be armed")
	}
	if !f.d.timers[engine.Irrigation].Stop() {
		t.Error("irrigation timer should be armed")
	}
	if f.d.timers[engine.Bloom].Stop() {
		t.Error("bloom timer should not be armed while disabled")
	}

	// Every first-time command publishes its recovered state.
	if len(f.publisher.Events) != 4 {
		t.Errorf("published %d events, want 4", len(f.publisher.Events))
	}
}

func TestApplyPublishesOnlyTransitions(t *testing.T) {
	now := time.Date(2026, 4, 1, 17, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.d.setChannel(gpio.GrowLight, true, now)
	f.d.setChannel(gpio.GrowLight, true, now)
	f.d.setChannel(gpio.GrowLight, false, now)

	if len(f.publisher.Events) != 2 {
		t.Fatalf("published %d events, want 2", len(f.publisher.Events))
	}
	if !f.publisher.Events[0].On || f.publisher.Events[1].On {
		t.Errorf("event states = %v/%v, want on/off",
			f.publisher.Events[0].On, f.publisher.Events[1].On)
	}
}

func TestBloomExpiryClearsPersistedStart(t *testing.T) {
	now := time.Date(2026, 4, 1, 17, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.d.eng.SetBloomStart(now.AddDate(0, 0, -91))

	f.d.apply(f.d.eng.Bootstrap(now), now)

	if len(f.store.Saves) != 1 || !f.store.Saves[0].IsZero() {
		t.Fatalf("saves = %v, want one zero save", f.store.Saves)
	}
	var found bool
	for _, ev := range f.publisher.SystemEvents {
		if ev.Event == "BLOOM_EXPIRED" {
			found = true
		}
	}
	if !found {
		t.Error("BLOOM_EXPIRED system event not published")
	}
	if f.outputs.States[gpio.BloomLight] || f.outputs.States[gpio.FarRed] {
		t.Error("bloom and far-red should be off after expiry")
	}
}

func TestHandleCommandQueryClockRepliesOnSerial(t *testing.T) {
	f := newFixture(t, time.Now())
	want := time.Unix(1767225600, 0) // 2026-01-01T00:00:00Z
	f.d.clk.Set(want)

	f.d.handleCommand("T")

	reply := f.serial.String()
	if !strings.HasPrefix(reply, "T") || !strings.HasSuffix(reply, ";\n") {
		t.Fatalf("reply = %q, want T<epoch>;\\n", reply)
	}
	sec, err := strconv.ParseInt(strings.TrimSuffix(reply[1:], ";\n"), 10, 64)
	if err != nil {
		t.Fatalf("parse reply %q: %v", reply, err)
	}
	if sec < want.Unix() || sec > want.Unix()+2 {
		t.Errorf("reply epoch = %d, want ~%d", sec, want.Unix())
	}
}

func TestHandleCommandSetBloomStartPersistsAndRebootstraps(t *testing.T) {
	f := newFixture(t, time.Now())
	start := time.Now().Add(-time.Hour).Truncate(time.Second)

	f.d.handleCommand(fmt.Sprintf("B%d", start.Unix()))

	if !f.store.Start.Equal(start) {
		t.Errorf("stored start = %v, want %v", f.store.Start, start)
	}
	if !f.d.eng.BloomStart().Equal(start) {
		t.Errorf("engine start = %v, want %v", f.d.eng.BloomStart(), start)
	}
	// One hour in: the bloom light is within its first lit span.
	if !f.outputs.States[gpio.BloomLight] {
		t.Error("bloom light should be on after re-bootstrap")
	}
}

func TestHandleCommandClearBloomStart(t *testing.T) {
	f := newFixture(t, time.Now())
	f.d.eng.SetBloomStart(time.Now().Add(-time.Hour))

	f.d.handleCommand("B0")

	if !f.store.Start.IsZero() {
		t.Errorf("stored start = %v, want zero", f.store.Start)
	}
	if !f.d.eng.BloomStart().IsZero() {
		t.Error("engine bloom start should be cleared")
	}
	if f.outputs.States[gpio.BloomLight] {
		t.Error("bloom light should be off after clearing")
	}
}

func TestHandleCommandMalformedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, time.Now())

	f.d.handleCommand("X1767225600")
	f.d.handleCommand("B123") // below minimum valid epoch

	if len(f.store.Saves) != 0 {
		t.Errorf("saves = %v, want none", f.store.Saves)
	}
	if len(f.outputs.History) != 0 {
		t.Errorf("gpio commands = %v, want none", f.outputs.History)
	}
}

func TestPollSensorDrivesFanThrottle(t *testing.T) {
	now := time.Now()
	f := newFixture(t, now)
	reader := sensor.NewFakeReader(25, 23, 24, 25.1)

	f.d.pollSensor(reader, now) // 25: above minimum, no change
	f.d.pollSensor(reader, now) // 23: at minimum, throttle
	f.d.pollSensor(reader, now) // 24: inside band, hold
	f.d.pollSensor(reader, now) // 25.1: above band, release

	var throttleCmds []bool
	for _, cmd := range f.outputs.History {
		if cmd.Channel == gpio.FanThrottle {
			throttleCmds = append(throttleCmds, cmd.On)
		}
	}
	if len(throttleCmds) != 2 || !throttleCmds[0] || throttleCmds[1] {
		t.Errorf("throttle commands = %v, want [true false]", throttleCmds)
	}
}

func TestPollSensorHoldsStateOnFailure(t *testing.T) {
	now := time.Now()
	f := newFixture(t, now)

	reader := sensor.NewFakeReader(22)
	f.d.pollSensor(reader, now) // throttle on

	reader.ReadError = sensor.ErrUnavailable
	f.d.pollSensor(reader, now)
	f.d.pollSensor(reader, now)

	if !f.outputs.States[gpio.FanThrottle] {
		t.Error("throttle should hold through sensor failures")
	}
	snap := f.d.tracker.Snapshot()
	if snap.SensorFailures != 2 {
		t.Errorf("sensor failures = %d, want 2", snap.SensorFailures)
	}
	if !snap.TempValid || snap.TemperatureC != 22 {
		t.Errorf("temperature = (%v, %v), want held 22", snap.TemperatureC, snap.TempValid)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT = %q", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("SIGTERM = %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP = %q", got)
	}
}
