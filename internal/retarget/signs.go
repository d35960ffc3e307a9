package retarget

import (
	"fmt"

	"github.com/ayusman/kathakali/internal/rig"
)

// Signs multiplies each Euler component by ±1 to convert between the
// solver's handedness and the rig's.
type Signs struct {
	X, Y, Z float64
}

var (
	keep     = Signs{1, 1, 1}
	invert   = Signs{-1, -1, -1}
	invertXY = Signs{-1, -1, 1}
)

// Apply flips e component-wise.
func (s Signs) Apply(e rig.Euler) rig.Euler {
	return rig.Euler{X: e.X * s.X, Y: e.Y * s.Y, Z: e.Z * s.Z, Order: e.Order}
}

// SignTable holds per-joint sign conventions. Joints without an entry
// pass through unchanged.
type SignTable map[rig.JointName]Signs

// Apply flips e with the entry for j, if any.
func (t SignTable) Apply(j rig.JointName, e rig.Euler) rig.Euler {
	s, ok := t[j]
	if !ok {
		return e
	}
	return s.Apply(e)
}

// Named sign tables.
const (
	VariantMirrored    = "mirrored"
	VariantPassthrough = "passthrough"
)

// MirroredSigns is for rigs whose arms, wrists and fingers rotate in the
// opposite sense from a selfie camera.
func MirroredSigns() SignTable {
	t := SignTable{
		rig.Neck:          invertXY,
		rig.Head:          invertXY,
		rig.LeftUpperArm:  invert,
		rig.LeftLowerArm:  invert,
		rig.RightUpperArm: invert,
		rig.RightLowerArm: invert,
		rig.LeftHand:      invert,
		rig.RightHand:     invert,
	}
	for _, side := range rig.Sides {
		for f := rig.Finger(0); int(f) < rig.NumFingers; f++ {
			for s := rig.Segment(0); int(s) < rig.NumSegments; s++ {
				t[rig.FingerJoint(side, f, s)] = invert
			}
		}
	}
	return t
}

// PassthroughSigns keeps the solver's limb signs and only turns the head.
func PassthroughSigns() SignTable {
	return SignTable{
		rig.Neck: invertXY,
		rig.Head: invertXY,
	}
}

// SignTableFor returns the named table.
func SignTableFor(variant string) (SignTable, error) {
	switch variant {
	case VariantMirrored, "":
		return MirroredSigns(), nil
	case VariantPassthrough:
		return PassthroughSigns(), nil
	}
	return nil, fmt.Errorf("unknown sign table %q", variant)
}

// With returns a copy of t with overrides applied.
func (t SignTable) With(overrides SignTable) SignTable {
	out := make(SignTable, len(t)+len(overrides))
	for j, s := range t {
		out[j] = s
	}
	for j, s := range overrides {
		if s == keep {
			delete(out, j)
			continue
		}
		out[j] = s
	}
	return out
}
