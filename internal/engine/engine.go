// Package engine is the orchestrator's decision core. It owns the runtime
// state of the four time-phase schedulers and turns "a timer fired at t" or
// "the daemon booted at t" into a Plan: relay commands to apply plus at most
// one re-arm delay per scheduler. It never touches timers, GPIO or storage
// itself — the run loop applies plans — so every decision is testable with
// nothing but a time.Time.
//
// Each handler recomputes its phase from the actual current time rather
// than assuming the timer fired exactly on schedule, so a stalled or late
// timer self-heals at the next firing with no cumulative drift.
package engine

import (
	"time"

	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/schedule"
)

// Kind identifies one of the timer-driven schedulers.
type Kind int

const (
	Growth Kind = iota
	Bloom
	FarRed
	Irrigation
)

func (k Kind) String() string {
	switch k {
	case Growth:
		return "growth"
	case Bloom:
		return "bloom"
	case FarRed:
		return "far_red"
	case Irrigation:
		return "irrigation"
	}
	return "unknown"
}

// Output is one relay command.
type Output struct {
	Channel gpio.Channel
	On      bool
}

// Arm requests one single-shot timer.
type Arm struct {
	Kind  Kind
	Delay time.Duration
}

// Plan is the engine's answer to one bootstrap or timer firing.
type Plan struct {
	Outputs []Output
	Arms    []Arm

	// ClearBloomStart reports that the MaxDays safety cutoff tripped:
	// the run loop must persist a zero bloom start.
	ClearBloomStart bool
}

// Engine holds the scheduler runtime state. Not safe for concurrent use:
// all mutation happens on the run loop's single thread of control.
type Engine struct {
	growth     schedule.GrowthConfig
	bloom      schedule.BloomConfig
	farRed     schedule.FarRedConfig
	irrigation schedule.IrrigationConfig

	bootTime   time.Time
	bloomStart time.Time

	growthIndex int

	// Latest bloom computation and when it was made. The far-red
	// scheduler derives its window from this snapshot instead of
	// walking time itself.
	bloomResult schedule.BloomResult
	bloomAt     time.Time
}

// New creates an engine. bootTime anchors the irrigation duty cycle.
func New(growth schedule.GrowthConfig, bloom schedule.BloomConfig,
	farRed schedule.FarRedConfig, irrigation schedule.IrrigationConfig,
	bootTime time.Time) *Engine {
	return &Engine{
		growth:     growth,
		bloom:      bloom,
		farRed:     farRed,
		irrigation: irrigation,
		bootTime:   bootTime,
	}
}

// SetBloomStart replaces the bloom anchor. The caller must re-bootstrap.
func (e *Engine) SetBloomStart(start time.Time) {
	e.bloomStart = start
}

// BloomStart returns the current bloom anchor.
func (e *Engine) BloomStart() time.Time {
	return e.bloomStart
}

// GrowthIndex returns the active growth phase index.
func (e *Engine) GrowthIndex() int {
	return e.growthIndex
}

// LatestBloom returns the most recent bloom computation.
func (e *Engine) LatestBloom() schedule.BloomResult {
	return e.bloomResult
}

// Bootstrap recovers the full output state at now and arms every scheduler.
// Called at boot and again whenever the clock or the bloom start changes.
func (e *Engine) Bootstrap(now time.Time) Plan {
	var p Plan
	e.planGrowth(now, &p)
	e.planBloom(now, &p)
	e.planIrrigation(now, &p)
	return p
}

// Fire handles one timer firing: flip the scheduler's output, recompute
// from the actual current time, and re-arm.
func (e *Engine) Fire(k Kind, now time.Time) Plan {
	var p Plan
	switch k {
	case Growth:
		e.planGrowth(now, &p)
	case Bloom:
		// Far-red reads the bloom snapshot, so every bloom
		// recomputation refreshes both schedulers together.
		e.planBloom(now, &p)
	case FarRed:
		e.planFarRed(now, &p)
	case Irrigation:
		e.planIrrigation(now, &p)
	}
	return p
}

func (e *Engine) planGrowth(now time.Time, p *Plan) {
	index, next := schedule.GrowthPhase(e.growth, now)
	e.growthIndex = index
	p.Outputs = append(p.Outputs, Output{gpio.GrowLight, schedule.GrowthLit(index)})
	p.Arms = append(p.Arms, Arm{Growth, next})
}

func (e *Engine) planBloom(now time.Time, p *Plan) {
	res := schedule.EvaluateBloom(e.bloom, e.bloomStart, now)
	e.bloomResult = res
	e.bloomAt = now

	switch res.Status {
	case schedule.BloomDisabled:
		p.Outputs = append(p.Outputs,
			Output{gpio.BloomLight, false}, Output{gpio.FarRed, false})
		return

	case schedule.BloomExpired:
		// Stale configuration after a long power-off: force bloom
		// mode off and have the run loop clear the persisted anchor.
		e.bloomStart = time.Time{}
		p.Outputs = append(p.Outputs,
			Output{gpio.BloomLight, false}, Output{gpio.FarRed, false})
		p.ClearBloomStart = true
		return
	}

	p.Outputs = append(p.Outputs, Output{gpio.BloomLight, res.On})
	p.Arms = append(p.Arms, Arm{Bloom, res.Next})

	fr := schedule.FarRedWindow(e.farRed, e.bloom, res)
	p.Outputs = append(p.Outputs, Output{gpio.FarRed, fr.On})
	if fr.Next > 0 {
		p.Arms = append(p.Arms, Arm{FarRed, fr.Next})
	}
}

func (e *Engine) planFarRed(now time.Time, p *Plan) {
	res, ok := e.bloomSnapshotAt(now)
	if !ok {
		// The snapshot's fold already passed but the bloom timer has
		// not fired yet (firing order is not guaranteed). Recompute
		// bloom as well; its own firing will land on the same state.
		e.planBloom(now, p)
		return
	}

	fr := schedule.FarRedWindow(e.farRed, e.bloom, res)
	p.Outputs = append(p.Outputs, Output{gpio.FarRed, fr.On})
	if fr.Next > 0 {
		p.Arms = append(p.Arms, Arm{FarRed, fr.Next})
	}
}

// bloomSnapshotAt shifts the latest bloom result to now. Reports false when
// the snapshot no longer covers now.
func (e *Engine) bloomSnapshotAt(now time.Time) (schedule.BloomResult, bool) {
	res := e.bloomResult
	switch res.Status {
	case schedule.BloomDisabled, schedule.BloomExpired:
		return res, true
	}
	elapsed := now.Sub(e.bloomAt)
	if elapsed < 0 || elapsed >= res.Next {
		return res, false
	}
	res.Next -= elapsed
	return res, true
}

func (e *Engine) planIrrigation(now time.Time, p *Plan) {
	on, next := schedule.IrrigationPhase(e.irrigation, now.Sub(e.bootTime))
	p.Outputs = append(p.Outputs, Output{gpio.Pump, on})
	p.Arms = append(p.Arms, Arm{Irrigation, next})
}
