package solver

import (
	"testing"

	"github.com/ayusman/kathakali/internal/detector"
	"github.com/ayusman/kathakali/internal/rig"
	"github.com/google/go-cmp/cmp"
)

func TestEmbedded_FullBody(t *testing.T) {
	p, err := NewEmbedded().Solve(detector.FullBodyResult())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if p.Face == nil || p.Pose == nil || p.LeftHand == nil || p.RightHand == nil {
		t.Fatalf("expected every group, got %+v", p)
	}

	if diff := cmp.Diff(rig.Euler{X: 1, Y: 0.4, Z: -1}, p.Pose.Hips.Rotation); diff != "" {
		t.Errorf("hips rotation mismatch (-want +got):\n%s", diff)
	}
	if p.Pose.Hips.Position.Z != 0.3 {
		t.Errorf("expected hips z 0.3, got %f", p.Pose.Hips.Position.Z)
	}
	if p.Pose.LeftUpperLeg.Order != rig.OrderXYZ {
		t.Errorf("expected leg rotation order to survive, got %q", p.Pose.LeftUpperLeg.Order)
	}
	if got := p.Pose.HandRoot(rig.Right).Z; got != -0.25 {
		t.Errorf("expected right hand roll -0.25, got %f", got)
	}

	if got := p.LeftHand.Fingers[rig.Index][rig.Proximal].Z; got != 0.5 {
		t.Errorf("expected index proximal z 0.5, got %f", got)
	}
	if got := p.LeftHand.Fingers[rig.Thumb][rig.Distal]; got != (rig.Euler{X: 0.1, Y: 0.2}) {
		t.Errorf("unexpected thumb distal %+v", got)
	}

	want := Mouth{A: 0.4, E: 0.1, O: 0.2}
	if diff := cmp.Diff(want, p.Face.Mouth); diff != "" {
		t.Errorf("mouth mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbedded_GatesOnLandmarks(t *testing.T) {
	t.Run("face only", func(t *testing.T) {
		p, err := NewEmbedded().Solve(detector.FaceOnlyResult())
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		if p.Face == nil {
			t.Error("expected face")
		}
		if p.Pose != nil || p.LeftHand != nil || p.RightHand != nil {
			t.Errorf("expected only face, got %+v", p)
		}
	})

	t.Run("solution without landmarks is ignored", func(t *testing.T) {
		res := detector.FullBodyResult()
		res.PoseWorldLandmarks = nil
		res.LeftHandLandmarks = nil

		p, err := NewEmbedded().Solve(res)
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		if p.Pose != nil {
			t.Error("body needs world landmarks too")
		}
		if p.LeftHand != nil {
			t.Error("left hand has no landmarks")
		}
		if p.RightHand == nil {
			t.Error("right hand should remain")
		}
	})

	t.Run("no payload", func(t *testing.T) {
		p, err := NewEmbedded().Solve(&detector.Result{})
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		if !p.Empty() {
			t.Error("expected empty pose")
		}
	})

	t.Run("bad payload", func(t *testing.T) {
		res := detector.FaceOnlyResult()
		res.Solved = []byte("{")
		if _, err := NewEmbedded().Solve(res); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestWireHand_SidePrefixedKeys(t *testing.T) {
	w := &wireHand{Fingers: map[string]rig.Euler{"LeftRingDistal": {Z: 1}}}
	h := w.solution(rig.Left)
	if h.Fingers[rig.Ring][rig.Distal].Z != 1 {
		t.Error("expected side-prefixed key to be read")
	}
}
