package retarget

import (
	"math"
	"testing"

	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/solver"
)

func TestApplyExpressions(t *testing.T) {
	cfg := DefaultExpressionConfig()

	t.Run("eases mouth and blink from the previous frame", func(t *testing.T) {
		set := rig.NewExpressionSet()
		face := &solver.FaceSolution{EyeLeft: 0, EyeRight: 0, Mouth: solver.Mouth{A: 1}}

		ApplyExpressions(face, set, cfg)

		if got := set.Value(rig.ExprA); math.Abs(got-0.5) > epsilon {
			t.Errorf("expected A halfway to 1, got %f", got)
		}
		if got := set.Value(rig.ExprBlink); math.Abs(got-0.5) > epsilon {
			t.Errorf("expected blink halfway to closed, got %f", got)
		}

		for i := 0; i < 20; i++ {
			ApplyExpressions(face, set, cfg)
		}
		if got := set.Value(rig.ExprBlink); got > cfg.BlinkCap+epsilon {
			t.Errorf("blink must be capped at %f, got %f", cfg.BlinkCap, got)
		}
	})

	t.Run("weights stay in range", func(t *testing.T) {
		set := rig.NewExpressionSet()
		face := &solver.FaceSolution{EyeLeft: 7, EyeRight: -3, Mouth: solver.Mouth{O: 4, U: -2}}
		for i := 0; i < 5; i++ {
			ApplyExpressions(face, set, cfg)
		}
		for _, name := range set.Names() {
			if v := set.Value(name); v < 0 || v > 1 {
				t.Errorf("%s out of range: %f", name, v)
			}
		}
	})

	t.Run("gaze follows pupils", func(t *testing.T) {
		set := rig.NewExpressionSet()
		ApplyExpressions(&solver.FaceSolution{EyeLeft: 1, EyeRight: 1, PupilX: 1, PupilY: -1}, set, cfg)
		if math.Abs(set.LookAt.Y-0.4) > epsilon || math.Abs(set.LookAt.X+0.4) > epsilon {
			t.Errorf("unexpected look-at %+v", set.LookAt)
		}
	})

	t.Run("nil set is ignored", func(t *testing.T) {
		ApplyExpressions(&solver.FaceSolution{}, nil, cfg)
	})
}

func TestStabilizeBlink(t *testing.T) {
	tests := []struct {
		name         string
		l, r, yaw    float64
		wantL, wantR float64
	}{
		{"facing camera", 0.2, 0.8, 0, 0.2, 0.8},
		{"turned right", 0.2, 0.8, 0.7, 0.8, 0.8},
		{"turned left", 0.2, 0.8, -0.7, 0.2, 0.2},
		{"clamped", -1, 2, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := stabilizeBlink(tt.l, tt.r, tt.yaw, 0.5)
			if l != tt.wantL || r != tt.wantR {
				t.Errorf("expected (%f, %f), got (%f, %f)", tt.wantL, tt.wantR, l, r)
			}
		})
	}
}
