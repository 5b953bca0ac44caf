package engine

import (
	"testing"
	"time"

	"github.com/sweeney/grow-controller/internal/gpio"
	"github.com/sweeney/grow-controller/internal/schedule"
)

func minutes(ms ...int) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, m := range ms {
		out[i] = time.Duration(m) * time.Minute
	}
	return out
}

func newTestEngine(boot time.Time) *Engine {
	return New(
		schedule.GrowthConfig{Periods: minutes(720, 330, 60, 330), StartHour: 16, StartMinute: 20},
		schedule.BloomConfig{
			On: 780 * time.Minute, Off: 690 * time.Minute,
			DayReduction: 2 * time.Minute, NightProlong: 2 * time.Minute,
			DriftStartDay: 14, MaxDays: 90,
		},
		schedule.FarRedConfig{Pre: 10 * time.Minute, Post: 15 * time.Minute},
		schedule.IrrigationConfig{On: 120 * time.Second, Off: 1800 * time.Second},
		boot,
	)
}

func findOutput(t *testing.T, p Plan, ch gpio.Channel) bool {
	t.Helper()
	for _, o := range p.Outputs {
		if o.Channel == ch {
			return o.On
		}
	}
	t.Fatalf("plan has no output for %s", ch)
	return false
}

func findArm(p Plan, k Kind) (time.Duration, bool) {
	for _, a := range p.Arms {
		if a.Kind == k {
			return a.Delay, true
		}
	}
	return 0, false
}

func TestBootstrapWithBloomDisabled(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)

	p := e.Bootstrap(boot)

	// Growth: phase 0 is lit, armed for the 12h fold.
	if !findOutput(t, p, gpio.GrowLight) {
		t.Error("grow light should be lit at 16:20")
	}
	if d, ok := findArm(p, Growth); !ok || d != 720*time.Minute {
		t.Errorf("growth arm = (%v, %v), want 720m", d, ok)
	}

	// Bloom disabled: both bloom-dependent channels off, neither armed.
	if findOutput(t, p, gpio.BloomLight) {
		t.Error("bloom light must be off when disabled")
	}
	if findOutput(t, p, gpio.FarRed) {
		t.Error("far-red must be off when disabled")
	}
	if _, ok := findArm(p, Bloom); ok {
		t.Error("bloom must not be armed when disabled")
	}
	if _, ok := findArm(p, FarRed); ok {
		t.Error("far-red must not be armed when disabled")
	}

	// Irrigation starts its ON phase at boot.
	if !findOutput(t, p, gpio.Pump) {
		t.Error("pump should run at boot")
	}
	if d, ok := findArm(p, Irrigation); !ok || d != 120*time.Second {
		t.Errorf("irrigation arm = (%v, %v), want 120s", d, ok)
	}

	if p.ClearBloomStart {
		t.Error("no clear request expected")
	}
}

func TestBootstrapWithActiveBloom(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	e.SetBloomStart(boot.Add(-2 * time.Hour))

	p := e.Bootstrap(boot)

	if !findOutput(t, p, gpio.BloomLight) {
		t.Error("bloom light should be lit 2h into the cycle")
	}
	if d, ok := findArm(p, Bloom); !ok || d != 660*time.Minute {
		t.Errorf("bloom arm = (%v, %v), want 660m", d, ok)
	}
	// Far-red armed for its window opening 10m before the fold.
	if d, ok := findArm(p, FarRed); !ok || d != 650*time.Minute {
		t.Errorf("far-red arm = (%v, %v), want 650m", d, ok)
	}
}

func TestGrowthFireFlipsAndRearms(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	e.Bootstrap(boot)

	// Timer fires exactly at the fold.
	p := e.Fire(Growth, boot.Add(720*time.Minute))
	if findOutput(t, p, gpio.GrowLight) {
		t.Error("grow light should be dark in phase 1")
	}
	if e.GrowthIndex() != 1 {
		t.Errorf("growth index = %d, want 1", e.GrowthIndex())
	}
	if d, ok := findArm(p, Growth); !ok || d != 330*time.Minute {
		t.Errorf("growth re-arm = (%v, %v), want 330m", d, ok)
	}
}

func TestGrowthFireSelfHealsAfterStall(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	e.Bootstrap(boot)

	// The timer fires 40 minutes late: recomputation from actual time
	// lands mid phase 1 with the remaining delay, not a full period.
	p := e.Fire(Growth, boot.Add(760*time.Minute))
	if findOutput(t, p, gpio.GrowLight) {
		t.Error("grow light should be dark in phase 1")
	}
	if d, ok := findArm(p, Growth); !ok || d != 290*time.Minute {
		t.Errorf("growth re-arm = (%v, %v), want 290m", d, ok)
	}
}

func TestBloomFireRefreshesFarRed(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	start := boot.Add(-779 * time.Minute)
	e.SetBloomStart(start)
	e.Bootstrap(boot)

	// Bloom timer fires at its OFF fold, one minute after boot. The
	// far-red window opened 10 minutes before the fold, so it is lit
	// and closes 15 minutes after.
	p := e.Fire(Bloom, start.Add(780*time.Minute))
	if findOutput(t, p, gpio.BloomLight) {
		t.Error("bloom light should be dark after the fold")
	}
	if !findOutput(t, p, gpio.FarRed) {
		t.Error("far-red should be lit just after the OFF fold")
	}
	if d, ok := findArm(p, FarRed); !ok || d != 15*time.Minute {
		t.Errorf("far-red re-arm = (%v, %v), want 15m", d, ok)
	}
}

func TestFarRedFireUsesBloomSnapshot(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	start := boot.Add(-2 * time.Hour)
	e.SetBloomStart(start)
	e.Bootstrap(boot)

	// Far-red timer fires at its window opening: the bloom fold is 660m
	// after boot, so the window opens at 650m.
	p := e.Fire(FarRed, boot.Add(650*time.Minute))
	if !findOutput(t, p, gpio.FarRed) {
		t.Error("far-red should be lit at window open")
	}
	// Window closes at the fold (10m out) plus 15m.
	if d, ok := findArm(p, FarRed); !ok || d != 25*time.Minute {
		t.Errorf("far-red re-arm = (%v, %v), want 25m", d, ok)
	}
	// The bloom scheduler itself is untouched by a far-red firing.
	if _, ok := findArm(p, Bloom); ok {
		t.Error("far-red firing must not re-arm bloom")
	}
}

func TestBloomExpiryForcesClear(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	e.SetBloomStart(boot.Add(-91 * 24 * time.Hour))

	p := e.Bootstrap(boot)

	if !p.ClearBloomStart {
		t.Fatal("expected clear request for expired bloom start")
	}
	if findOutput(t, p, gpio.BloomLight) || findOutput(t, p, gpio.FarRed) {
		t.Error("expired bloom must drive both channels off")
	}
	if _, ok := findArm(p, Bloom); ok {
		t.Error("expired bloom must not be armed")
	}
	if !e.BloomStart().IsZero() {
		t.Error("engine must drop its bloom anchor on expiry")
	}

	// Subsequent recomputations treat bloom as disabled, no new clear.
	p = e.Fire(Bloom, boot.Add(time.Hour))
	if p.ClearBloomStart {
		t.Error("clear must be requested once")
	}
}

func TestPendingBloomArmsForStartInstant(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	e.SetBloomStart(boot.Add(3 * time.Hour))

	p := e.Bootstrap(boot)

	if findOutput(t, p, gpio.BloomLight) {
		t.Error("bloom light dark before the start instant")
	}
	if d, ok := findArm(p, Bloom); !ok || d != 3*time.Hour {
		t.Errorf("bloom arm = (%v, %v), want 3h", d, ok)
	}
}

func TestIrrigationFireCyclesIndependently(t *testing.T) {
	boot := time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)
	e := newTestEngine(boot)
	e.Bootstrap(boot)

	p := e.Fire(Irrigation, boot.Add(120*time.Second))
	if findOutput(t, p, gpio.Pump) {
		t.Error("pump should stop after its ON span")
	}
	if d, ok := findArm(p, Irrigation); !ok || d != 1800*time.Second {
		t.Errorf("irrigation re-arm = (%v, %v), want 1800s", d, ok)
	}

	p = e.Fire(Irrigation, boot.Add(1920*time.Second))
	if !findOutput(t, p, gpio.Pump) {
		t.Error("pump should restart on the next cycle")
	}
}
