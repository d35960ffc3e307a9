package retarget

import (
	"math"

	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/solver"
)

// ExpressionConfig tunes how face tracking eases blendshapes.
type ExpressionConfig struct {
	// MouthBlend and BlinkBlend are the weight kept from the previous
	// frame.
	MouthBlend float64
	BlinkBlend float64

	// PupilBlend is the fraction of the way the look-at target moves
	// toward the new gaze each frame.
	PupilBlend float64

	// BlinkCap keeps the lids from fully closing.
	BlinkCap float64

	// WinkYaw is the head yaw beyond which the far eye copies the near one.
	WinkYaw float64
}

// DefaultExpressionConfig returns the standard easing.
func DefaultExpressionConfig() ExpressionConfig {
	return ExpressionConfig{
		MouthBlend: 0.5,
		BlinkBlend: 0.5,
		PupilBlend: 0.4,
		BlinkCap:   0.9,
		WinkYaw:    0.5,
	}
}

// ApplyExpressions eases set toward the face state in f. Every weight
// stays in [0, 1].
func ApplyExpressions(f *solver.FaceSolution, set *rig.ExpressionSet, cfg ExpressionConfig) {
	if f == nil || set == nil {
		return
	}

	left, _ := stabilizeBlink(f.EyeLeft, f.EyeRight, f.Head.Y, cfg.WinkYaw)
	blink := lerp(clamp(1-left, 0, 1), set.Value(rig.ExprBlink), cfg.BlinkBlend)
	set.Set(rig.ExprBlink, math.Min(blink, cfg.BlinkCap))

	shapes := []struct {
		name  string
		value float64
	}{
		{rig.ExprA, f.Mouth.A},
		{rig.ExprE, f.Mouth.E},
		{rig.ExprI, f.Mouth.I},
		{rig.ExprO, f.Mouth.O},
		{rig.ExprU, f.Mouth.U},
	}
	for _, s := range shapes {
		set.Set(s.name, clamp(lerp(s.value, set.Value(s.name), cfg.MouthBlend), 0, 1))
	}

	set.LookAt = rig.Euler{
		X:     lerp(set.LookAt.X, f.PupilY, cfg.PupilBlend),
		Y:     lerp(set.LookAt.Y, f.PupilX, cfg.PupilBlend),
		Order: rig.OrderXYZ,
	}
}

// stabilizeBlink clamps eye openness and, when the head is turned far
// enough to hide one eye, copies the visible eye onto the hidden one.
func stabilizeBlink(left, right, headYaw, maxYaw float64) (float64, float64) {
	left, right = clamp(left, 0, 1), clamp(right, 0, 1)
	switch {
	case headYaw > maxYaw:
		return right, right
	case headYaw < -maxYaw:
		return left, left
	}
	return left, right
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
