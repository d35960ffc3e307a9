package capture

import (
	"testing"
	"time"
)

func TestRateGovernor(t *testing.T) {
	g := NewRateGovernor(RateConfig{})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if g.Active() || g.FPS() != DefaultIdleFPS {
		t.Fatalf("expected idle at %d fps, got %d", DefaultIdleFPS, g.FPS())
	}
	if g.Interval() != 200*time.Millisecond {
		t.Errorf("expected 200ms idle interval, got %v", g.Interval())
	}

	steps := []struct {
		name        string
		motion      bool
		at          time.Duration
		wantFPS     int
		wantChanged bool
	}{
		{"still", false, 0, DefaultIdleFPS, false},
		{"motion starts", true, 100 * time.Millisecond, DefaultActiveFPS, true},
		{"motion continues", true, 200 * time.Millisecond, DefaultActiveFPS, false},
		{"quiet within hold", false, 2200 * time.Millisecond, DefaultActiveFPS, false},
		{"quiet past hold", false, 2201 * time.Millisecond, DefaultIdleFPS, true},
		{"still idle", false, 5 * time.Second, DefaultIdleFPS, false},
	}

	for _, s := range steps {
		fps, changed := g.Observe(s.motion, start.Add(s.at))
		if fps != s.wantFPS || changed != s.wantChanged {
			t.Errorf("%s: got fps=%d changed=%v, want fps=%d changed=%v", s.name, fps, changed, s.wantFPS, s.wantChanged)
		}
	}
}

func TestRateGovernor_Reset(t *testing.T) {
	g := NewRateGovernor(RateConfig{IdleFPS: 2, ActiveFPS: 20, IdleAfter: time.Second})
	g.Observe(true, time.Now())
	if g.FPS() != 20 {
		t.Fatalf("expected 20 fps, got %d", g.FPS())
	}
	g.Reset()
	if g.Active() || g.FPS() != 2 {
		t.Errorf("expected idle after reset, got %d", g.FPS())
	}
}
