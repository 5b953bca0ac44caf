// Command grow-controller drives the relay board of a plant enclosure:
// grow light, bloom light, far-red light, irrigation pump and exhaust-fan
// throttle. Schedules are computed by the engine; this binary owns the
// timers, the hardware and the transports.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/grow-controller/internal/clock"
	"github.com/sweeney/grow-controller/internal/command"
	"github.com/sweeney/grow-controller/internal/config"
	"github.com/sweeney/grow-controller/internal/engine"
	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/mqtt"
	"github.com/sweeney/grow-controller/internal/schedule"
	"github.com/sweeney/grow-controller/internal/sensor"
	"github.com/sweeney/grow-controller/internal/status"
	"github.com/sweeney/grow-controller/internal/store"
	"github.com/sweeney/grow-controller/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (empty for built-in defaults)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	serialDev := flag.String("serial", "/dev/ttyAMA0", "Serial command device (empty to disable)")
	poll := flag.Duration("poll", 10*time.Second, "Temperature polling interval")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	checkConfig := flag.Bool("check-config", false, "Validate the config and exit")

	flag.Parse()

	if *checkConfig {
		if _, err := config.Load(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
		fmt.Println("config OK")
		return
	}

	if err := run(*configPath, *broker, *serialDev, *httpAddr, *poll, *heartbeat); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, broker, serialDev, httpAddr string, poll, heartbeat time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	outputs, err := gpio.NewRealOutputs(gpio.Pins{
		GrowLight:   cfg.Pins.GrowLight,
		BloomLight:  cfg.Pins.BloomLight,
		FarRed:      cfg.Pins.FarRed,
		Pump:        cfg.Pins.Pump,
		FanThrottle: cfg.Pins.FanThrottle,
	})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer outputs.Close()

	st := store.NewFileStore(cfg.StateFile)
	bloomStart, err := st.LoadBloomStart()
	if err != nil {
		// Corrupt state is not worth refusing to light the room over.
		log.Printf("bloom start unreadable, bloom mode disabled: %v", err)
	}

	var reader sensor.Reader
	if ds, err := sensor.NewDS18B20(cfg.Sensor.DeviceID); err != nil {
		log.Printf("temperature sensor unavailable, fan control disabled: %v", err)
	} else {
		reader = ds
	}

	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		SerialDev:   serialDev,
		StateFile:   cfg.StateFile,
	}, status.NewMetrics(reg))

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	var lines chan string
	var serialOut io.Writer
	if serialDev != "" {
		port, err := os.OpenFile(serialDev, os.O_RDWR, 0)
		if err != nil {
			log.Printf("serial %s unavailable, commands disabled: %v", serialDev, err)
		} else {
			defer port.Close()
			serialOut = port
			lines = make(chan string, 4)
			go readCommands(port, lines)
		}
	}

	clk := clock.New()
	eng := engine.New(cfg.GrowthSchedule(), cfg.BloomSchedule(),
		cfg.FarRedSchedule(), cfg.IrrigationSchedule(), clk.Now())
	eng.SetBloomStart(bloomStart)

	fan := schedule.NewThermostat(cfg.Fan.MinRoomTempC, cfg.Fan.HysteresisK)
	d := newDaemon(eng, outputs, publisher, tracker, st, clk, fan, serialOut)

	if clk.Healthy() {
		d.bootstrap(clk.Now())
	} else {
		// No RTC and no NTP yet. Arming on a 1970 clock would drive the
		// room to garbage states; wait for NTP or a T command.
		log.Printf("clock unhealthy (%s), schedulers not armed until time is set",
			clk.Now().UTC().Format(time.RFC3339))
		tracker.SetClockHealthy(false)
		fault := mqtt.SystemEvent{Timestamp: time.Now(), Event: "CLOCK_FAULT", Retained: true}
		if err := publisher.PublishSystem(fault); err != nil {
			log.Printf("failed to publish clock fault event: %v", err)
		}
	}

	log.Printf("started: poll=%v broker=%s heartbeat=%v serial=%s", poll, broker, heartbeat, serialDev)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return d.runLoop(reader, publisher, heartbeat, ticker.C, lines, sigCh)
}

// daemon wires the engine's plans to the hardware and transports. All state
// mutation happens on the run loop goroutine.
type daemon struct {
	eng       *engine.Engine
	outputs   gpio.Outputs
	publisher mqtt.Publisher
	tracker   *status.Tracker
	store     store.Store
	clk       *clock.Clock
	fan       *schedule.Thermostat
	serialOut io.Writer

	timers map[engine.Kind]*time.Timer
	state  map[gpio.Channel]bool
	armed  bool
}

func newDaemon(eng *engine.Engine, outputs gpio.Outputs, publisher mqtt.Publisher,
	tracker *status.Tracker, st store.Store, clk *clock.Clock,
	fan *schedule.Thermostat, serialOut io.Writer) *daemon {
	d := &daemon{
		eng:       eng,
		outputs:   outputs,
		publisher: publisher,
		tracker:   tracker,
		store:     st,
		clk:       clk,
		fan:       fan,
		serialOut: serialOut,
		timers:    make(map[engine.Kind]*time.Timer),
		state:     make(map[gpio.Channel]bool),
	}
	for _, k := range []engine.Kind{engine.Growth, engine.Bloom, engine.FarRed, engine.Irrigation} {
		t := time.NewTimer(time.Hour)
		t.Stop()
		d.timers[k] = t
	}
	return d
}

func (d *daemon) runLoop(reader sensor.Reader, mqttStatus mqtt.ConnectionStatus,
	heartbeat time.Duration, tick <-chan time.Time, lines <-chan string,
	sig <-chan os.Signal) error {
	lastHeartbeat := time.Now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			name := signalName(s)
			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  d.clk.Now(),
				Event:      "SHUTDOWN",
				Reason:     name,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", name),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-d.timers[engine.Growth].C:
			d.fire(engine.Growth)
		case <-d.timers[engine.Bloom].C:
			d.fire(engine.Bloom)
		case <-d.timers[engine.FarRed].C:
			d.fire(engine.FarRed)
		case <-d.timers[engine.Irrigation].C:
			d.fire(engine.Irrigation)

		case line := <-lines:
			if line != "" {
				d.handleCommand(line)
			}

		case <-tick:
			now := d.clk.Now()
			d.pollSensor(reader, now)

			if !d.armed && d.clk.Healthy() {
				// NTP caught up behind our back.
				log.Printf("clock recovered, arming schedulers")
				d.bootstrap(now)
			}

			if mqttStatus != nil {
				d.tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if heartbeat > 0 && time.Since(lastHeartbeat) >= heartbeat {
				lastHeartbeat = time.Now()
				d.heartbeat(now)
			}
		}
	}
}

// bootstrap recovers the full output state from the current time and arms
// every scheduler. Also the path that heals a previously unhealthy clock.
func (d *daemon) bootstrap(now time.Time) {
	d.disarmAll()
	d.armed = true
	d.tracker.SetClockHealthy(true)
	d.apply(d.eng.Bootstrap(now), now)
}

func (d *daemon) fire(k engine.Kind) {
	now := d.clk.Now()
	d.apply(d.eng.Fire(k, now), now)
}

func (d *daemon) apply(p engine.Plan, now time.Time) {
	for _, out := range p.Outputs {
		d.setChannel(out.Channel, out.On, now)
	}
	d.tracker.SetGrowthPhase(d.eng.GrowthIndex())
	d.tracker.SetBloom(d.eng.LatestBloom())

	for _, arm := range p.Arms {
		d.arm(arm.Kind, arm.Delay)
	}

	if p.ClearBloomStart {
		log.Printf("bloom expired after %d calendar days, disabling bloom mode",
			d.eng.LatestBloom().CalendarDays)
		if err := d.store.SaveBloomStart(time.Time{}); err != nil {
			log.Printf("clear bloom start: %v", err)
		}
		event := mqtt.SystemEvent{Timestamp: now, Event: "BLOOM_EXPIRED"}
		if err := d.publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish bloom expired event: %v", err)
		}
	}
}

// setChannel drives one relay, publishing a transition event when the
// commanded state actually changed (or is being commanded for the first
// time, which recovers the boot state).
func (d *daemon) setChannel(ch gpio.Channel, on bool, now time.Time) {
	if err := d.outputs.Set(ch, on); err != nil {
		log.Printf("gpio set %s: %v", ch, err)
	}
	prev, seen := d.state[ch]
	d.state[ch] = on
	d.tracker.SetChannel(ch, on)
	if seen && prev == on {
		return
	}

	log.Printf("%s -> %s", ch, stateString(on))
	if err := d.publisher.Publish(mqtt.Event{Timestamp: now, Channel: ch, On: on}); err != nil {
		log.Printf("publish %s: %v", ch, err)
		// Don't crash on publish failure
	}
}

func (d *daemon) arm(k engine.Kind, delay time.Duration) {
	t := d.timers[k]
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(delay)
}

func (d *daemon) disarmAll() {
	for _, t := range d.timers {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
	}
}

func (d *daemon) handleCommand(line string) {
	cmd, err := command.Parse(line)
	if err != nil {
		log.Printf("command: %v", err)
		return
	}

	switch cmd.Kind {
	case command.QueryClock:
		if d.serialOut != nil {
			fmt.Fprintf(d.serialOut, "T%d;\n", d.clk.Now().Unix())
		}

	case command.SetClock:
		d.clk.Set(cmd.Timestamp)
		log.Printf("clock set to %s", cmd.Timestamp.UTC().Format(time.RFC3339))
		if d.clk.Healthy() {
			d.bootstrap(d.clk.Now())
		}

	case command.SetBloomStart:
		if err := d.store.SaveBloomStart(cmd.Timestamp); err != nil {
			log.Printf("save bloom start: %v", err)
			return
		}
		d.eng.SetBloomStart(cmd.Timestamp)
		log.Printf("bloom start set to %s", cmd.Timestamp.UTC().Format(time.RFC3339))
		if d.clk.Healthy() {
			d.bootstrap(d.clk.Now())
		}

	case command.ClearBloomStart:
		if err := d.store.SaveBloomStart(time.Time{}); err != nil {
			log.Printf("clear bloom start: %v", err)
			return
		}
		d.eng.SetBloomStart(time.Time{})
		log.Printf("bloom mode disabled")
		if d.clk.Healthy() {
			d.bootstrap(d.clk.Now())
		}
	}
}

func (d *daemon) pollSensor(reader sensor.Reader, now time.Time) {
	if reader == nil {
		return
	}
	celsius, err := reader.ReadTemperature()
	if err != nil {
		log.Printf("sensor: %v", err)
		d.tracker.SensorFailed()
		return
	}
	d.tracker.SetTemperature(celsius)
	if d.fan.Process(celsius) {
		d.setChannel(gpio.FanThrottle, d.fan.Throttled(), now)
	}
}

func (d *daemon) heartbeat(now time.Time) {
	snap := d.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v phase=%d bloom=%s",
		snap.Uptime().Truncate(time.Second), snap.GrowthPhase, snap.Bloom.Status)
	event := mqtt.SystemEvent{
		Timestamp:  now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// readCommands feeds ';'-terminated serial tokens into the run loop.
func readCommands(r io.Reader, lines chan<- string) {
	sc := command.NewScanner(r)
	for sc.Scan() {
		if tok := sc.Text(); tok != "" {
			lines <- tok
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("serial read: %v", err)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
