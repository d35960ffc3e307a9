// Package retarget converts solved poses into per-joint targets for a
// humanoid rig.
package retarget

import (
	"math"

	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/solver"
	"gonum.org/v1/gonum/spatial/r3"
)

// Channel is how hard a target pulls: Dampening scales the raw value and
// Blend is the per-frame fraction of the remaining distance covered.
type Channel struct {
	Dampening float64 `yaml:"dampening" json:"dampening"`
	Blend     float64 `yaml:"blend" json:"blend"`
}

// RotationTarget is a goal orientation.
type RotationTarget struct {
	Euler rig.Euler
	Channel
}

// PositionTarget is a goal local translation.
type PositionTarget struct {
	Vec r3.Vec
	Channel
}

// Target is the goal for one joint. Either part may be nil. Rotation and
// position carry their own channel because the hips ease their
// translation far more slowly than their orientation.
type Target struct {
	Rotation *RotationTarget
	Position *PositionTarget
}

// Targets is one frame of joint goals.
type Targets map[rig.JointName]Target

// Tuning groups the per-family channels and the hip shaping constants.
type Tuning struct {
	HipsRotation Channel
	HipsPosition Channel
	Spine        Channel
	Chest        Channel
	Arms         Channel
	Legs         Channel
	Wrists       Channel
	Fingers      Channel
	Neck         Channel
	Head         Channel

	// HipsTiltScale and HipsTiltLimit shape hip pitch and roll; yaw
	// passes through.
	HipsTiltScale float64
	HipsTiltLimit float64

	// HipsHeight lifts the hips from the solver's origin to standing height.
	HipsHeight float64
}

// Config selects the sign table, tuning and optional behaviors.
type Config struct {
	Signs  SignTable
	Tuning Tuning

	// SwapHands drives the avatar's left hand from the hand the detector
	// labels right, and vice versa.
	SwapHands bool

	// DriveLegs enables the leg joints.
	DriveLegs bool
}

// DefaultConfig is the mirrored variant.
func DefaultConfig() Config {
	return Config{
		Signs: MirroredSigns(),
		Tuning: Tuning{
			HipsRotation:  Channel{Dampening: 0.7, Blend: 0.3},
			HipsPosition:  Channel{Dampening: 1, Blend: 0.07},
			Spine:         Channel{Dampening: 0.45, Blend: 0.3},
			Chest:         Channel{Dampening: 0.25, Blend: 0.3},
			Arms:          Channel{Dampening: 1, Blend: 0.4},
			Legs:          Channel{Dampening: 1, Blend: 0.3},
			Wrists:        Channel{Dampening: 1, Blend: 0.5},
			Fingers:       Channel{Dampening: 1, Blend: 0.5},
			Neck:          Channel{Dampening: 0.7, Blend: 0.4},
			Head:          Channel{Dampening: 0.5, Blend: 0.4},
			HipsTiltScale: 0.3,
			HipsTiltLimit: 0.2,
			HipsHeight:    1,
		},
		SwapHands: true,
		DriveLegs: true,
	}
}

// PassthroughConfig is for rigs that share the solver's handedness.
func PassthroughConfig() Config {
	cfg := DefaultConfig()
	cfg.Signs = PassthroughSigns()
	cfg.Tuning.Arms.Blend = 0.3
	cfg.Tuning.Wrists.Blend = 0.3
	cfg.Tuning.Fingers.Blend = 0.3
	return cfg
}

// ConfigFor returns the config of a named variant.
func ConfigFor(variant string) (Config, error) {
	if _, err := SignTableFor(variant); err != nil {
		return Config{}, err
	}
	if variant == VariantPassthrough {
		return PassthroughConfig(), nil
	}
	return DefaultConfig(), nil
}

// Mapper produces Targets from solved poses. It holds no per-frame state.
type Mapper struct {
	cfg Config
}

// NewMapper creates a mapper.
func NewMapper(cfg Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Config returns the mapper's configuration.
func (m *Mapper) Config() Config {
	return m.cfg
}

// Map converts one solved frame. Groups missing from p produce no targets.
func (m *Mapper) Map(p *solver.SolvedPose) Targets {
	targets := make(Targets)
	if p == nil {
		return targets
	}

	if p.Face != nil {
		m.mapHead(p.Face, targets)
	}
	if p.Pose != nil {
		m.mapBody(p.Pose, targets)
	}

	left, right := p.LeftHand, p.RightHand
	if m.cfg.SwapHands {
		left, right = right, left
	}
	m.mapHand(rig.Left, left, p.Pose, targets)
	m.mapHand(rig.Right, right, p.Pose, targets)

	return targets
}

func (m *Mapper) rotation(j rig.JointName, e rig.Euler, ch Channel) *RotationTarget {
	e = m.cfg.Signs.Apply(j, e)
	if e.Order == "" {
		e.Order = rig.OrderXYZ
	}
	return &RotationTarget{Euler: e, Channel: ch}
}

func (m *Mapper) mapHead(f *solver.FaceSolution, targets Targets) {
	t := m.cfg.Tuning
	targets[rig.Neck] = Target{Rotation: m.rotation(rig.Neck, f.Head, t.Neck)}
	targets[rig.Head] = Target{Rotation: m.rotation(rig.Head, f.Head, t.Head)}
}

func (m *Mapper) mapBody(p *solver.PoseSolution, targets Targets) {
	t := m.cfg.Tuning

	hr := p.Hips.Rotation
	hips := rig.Euler{
		X:     clamp(hr.X*t.HipsTiltScale, -t.HipsTiltLimit, t.HipsTiltLimit),
		Y:     hr.Y,
		Z:     clamp(hr.Z*t.HipsTiltScale, -t.HipsTiltLimit, t.HipsTiltLimit),
		Order: hr.Order,
	}
	hp := p.Hips.Position
	targets[rig.Hips] = Target{
		Rotation: m.rotation(rig.Hips, hips, t.HipsRotation),
		Position: &PositionTarget{
			Vec:     r3.Vec{X: hp.X, Y: hp.Y + t.HipsHeight, Z: -hp.Z},
			Channel: t.HipsPosition,
		},
	}

	targets[rig.Chest] = Target{Rotation: m.rotation(rig.Chest, p.Spine, t.Chest)}
	targets[rig.Spine] = Target{Rotation: m.rotation(rig.Spine, p.Spine, t.Spine)}

	targets[rig.LeftUpperArm] = Target{Rotation: m.rotation(rig.LeftUpperArm, p.LeftUpperArm, t.Arms)}
	targets[rig.LeftLowerArm] = Target{Rotation: m.rotation(rig.LeftLowerArm, p.LeftLowerArm, t.Arms)}
	targets[rig.RightUpperArm] = Target{Rotation: m.rotation(rig.RightUpperArm, p.RightUpperArm, t.Arms)}
	targets[rig.RightLowerArm] = Target{Rotation: m.rotation(rig.RightLowerArm, p.RightLowerArm, t.Arms)}

	if m.cfg.DriveLegs {
		targets[rig.LeftUpperLeg] = Target{Rotation: m.rotation(rig.LeftUpperLeg, p.LeftUpperLeg, t.Legs)}
		targets[rig.LeftLowerLeg] = Target{Rotation: m.rotation(rig.LeftLowerLeg, p.LeftLowerLeg, t.Legs)}
		targets[rig.RightUpperLeg] = Target{Rotation: m.rotation(rig.RightUpperLeg, p.RightUpperLeg, t.Legs)}
		targets[rig.RightLowerLeg] = Target{Rotation: m.rotation(rig.RightLowerLeg, p.RightLowerLeg, t.Legs)}
	}
}

// mapHand drives the fingers of side from h. The wrist combines the
// body's forearm roll (Z) with the hand's own pitch and yaw, so it is
// only driven when the body was solved too.
func (m *Mapper) mapHand(side rig.Side, h *solver.HandSolution, body *solver.PoseSolution, targets Targets) {
	if h == nil {
		return
	}
	t := m.cfg.Tuning

	if body != nil {
		wrist := rig.HandJoint(side)
		combined := rig.Euler{
			X:     h.Wrist.X,
			Y:     h.Wrist.Y,
			Z:     body.HandRoot(side).Z,
			Order: h.Wrist.Order,
		}
		targets[wrist] = Target{Rotation: m.rotation(wrist, combined, t.Wrists)}
	}

	for f := rig.Finger(0); int(f) < rig.NumFingers; f++ {
		for s := rig.Segment(0); int(s) < rig.NumSegments; s++ {
			j := rig.FingerJoint(side, f, s)
			targets[j] = Target{Rotation: m.rotation(j, h.Fingers[f][s], t.Fingers)}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
