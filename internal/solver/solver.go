// Package solver turns holistic landmarks into per-joint rotations.
//
// Kinematic solving runs inside the holistic service next to the
// landmark model; this package decodes its answer into typed values and
// gates each group on the landmarks the detector actually reported.
package solver

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/kathakali/internal/detector"
	"github.com/ayusman/kathakali/internal/rig"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hips holds the root orientation and the hip translation.
type Hips struct {
	Rotation rig.Euler
	Position r3.Vec
}

// PoseSolution is the solved body. LeftHand and RightHand carry only the
// forearm roll used to twist the wrist.
type PoseSolution struct {
	Hips          Hips
	Spine         rig.Euler
	LeftUpperArm  rig.Euler
	LeftLowerArm  rig.Euler
	RightUpperArm rig.Euler
	RightLowerArm rig.Euler
	LeftHand      rig.Euler
	RightHand     rig.Euler
	LeftUpperLeg  rig.Euler
	LeftLowerLeg  rig.Euler
	RightUpperLeg rig.Euler
	RightLowerLeg rig.Euler
}

// HandRoot returns the forearm roll for a side.
func (p *PoseSolution) HandRoot(side rig.Side) rig.Euler {
	if side == rig.Left {
		return p.LeftHand
	}
	return p.RightHand
}

// HandSolution is a solved hand, independent of side.
type HandSolution struct {
	Wrist   rig.Euler
	Fingers [rig.NumFingers][rig.NumSegments]rig.Euler
}

// Mouth holds the vowel shape weights in [0, 1].
type Mouth struct {
	A, E, I, O, U float64
}

// FaceSolution is the solved head and facial state.
type FaceSolution struct {
	Head rig.Euler

	// EyeLeft and EyeRight are openness, 0 closed to 1 open.
	EyeLeft  float64
	EyeRight float64

	Mouth Mouth

	// PupilX and PupilY are gaze offsets in [-1, 1].
	PupilX float64
	PupilY float64
}

// SolvedPose is the solver output for one frame. Absent groups are nil.
// Hands keep the detector's handedness labels.
type SolvedPose struct {
	Face      *FaceSolution
	Pose      *PoseSolution
	LeftHand  *HandSolution
	RightHand *HandSolution
}

// Empty reports whether no group was solved.
func (p *SolvedPose) Empty() bool {
	return p == nil || (p.Face == nil && p.Pose == nil && p.LeftHand == nil && p.RightHand == nil)
}

// Solver converts a detector result into a SolvedPose.
type Solver interface {
	Solve(res *detector.Result) (*SolvedPose, error)
}

// Embedded reads the solution the holistic service attached to a result.
type Embedded struct{}

// NewEmbedded returns an Embedded solver.
func NewEmbedded() *Embedded {
	return &Embedded{}
}

// Solve decodes res.Solved. A group is kept only when its landmarks are
// present: the face needs a face mesh, the body needs both image and
// world pose landmarks, and each hand needs its own landmark list.
func (Embedded) Solve(res *detector.Result) (*SolvedPose, error) {
	out := &SolvedPose{}
	if res == nil || len(res.Solved) == 0 {
		return out, nil
	}

	var w wireSolved
	if err := json.Unmarshal(res.Solved, &w); err != nil {
		return nil, fmt.Errorf("decode solved pose: %w", err)
	}

	if w.Face != nil && res.HasFace() {
		out.Face = w.Face.solution()
	}
	if w.Pose != nil && res.HasPose() && len(res.PoseWorldLandmarks) > 0 {
		out.Pose = w.Pose.solution()
	}
	if w.LeftHand != nil && len(res.LeftHandLandmarks) > 0 {
		out.LeftHand = w.LeftHand.solution(rig.Left)
	}
	if w.RightHand != nil && len(res.RightHandLandmarks) > 0 {
		out.RightHand = w.RightHand.solution(rig.Right)
	}
	return out, nil
}
