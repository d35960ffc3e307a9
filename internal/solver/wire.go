package solver

import (
	"github.com/ayusman/kathakali/internal/rig"
	"gonum.org/v1/gonum/spatial/r3"
)

type wireVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v wireVec) vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

type wireSolved struct {
	Face      *wireFace `json:"face"`
	Pose      *wirePose `json:"pose"`
	LeftHand  *wireHand `json:"leftHand"`
	RightHand *wireHand `json:"rightHand"`
}

type wireFace struct {
	Head rig.Euler `json:"head"`
	Eye  struct {
		L float64 `json:"l"`
		R float64 `json:"r"`
	} `json:"eye"`
	Mouth struct {
		Shape map[string]float64 `json:"shape"`
	} `json:"mouth"`
	Pupil struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"pupil"`
}

func (w *wireFace) solution() *FaceSolution {
	s := w.Mouth.Shape
	return &FaceSolution{
		Head:     w.Head,
		EyeLeft:  w.Eye.L,
		EyeRight: w.Eye.R,
		Mouth:    Mouth{A: s["A"], E: s["E"], I: s["I"], O: s["O"], U: s["U"]},
		PupilX:   w.Pupil.X,
		PupilY:   w.Pupil.Y,
	}
}

type wirePose struct {
	Hips struct {
		Rotation rig.Euler `json:"rotation"`
		Position wireVec   `json:"position"`
	} `json:"Hips"`
	Spine         rig.Euler `json:"Spine"`
	LeftUpperArm  rig.Euler `json:"LeftUpperArm"`
	LeftLowerArm  rig.Euler `json:"LeftLowerArm"`
	RightUpperArm rig.Euler `json:"RightUpperArm"`
	RightLowerArm rig.Euler `json:"RightLowerArm"`
	LeftHand      rig.Euler `json:"LeftHand"`
	RightHand     rig.Euler `json:"RightHand"`
	LeftUpperLeg  rig.Euler `json:"LeftUpperLeg"`
	LeftLowerLeg  rig.Euler `json:"LeftLowerLeg"`
	RightUpperLeg rig.Euler `json:"RightUpperLeg"`
	RightLowerLeg rig.Euler `json:"RightLowerLeg"`
}

func (w *wirePose) solution() *PoseSolution {
	return &PoseSolution{
		Hips:          Hips{Rotation: w.Hips.Rotation, Position: w.Hips.Position.vec()},
		Spine:         w.Spine,
		LeftUpperArm:  w.LeftUpperArm,
		LeftLowerArm:  w.LeftLowerArm,
		RightUpperArm: w.RightUpperArm,
		RightLowerArm: w.RightLowerArm,
		LeftHand:      w.LeftHand,
		RightHand:     w.RightHand,
		LeftUpperLeg:  w.LeftUpperLeg,
		LeftLowerLeg:  w.LeftLowerLeg,
		RightUpperLeg: w.RightUpperLeg,
		RightLowerLeg: w.RightLowerLeg,
	}
}

// wireHand keys fingers by digit and segment ("RingProximal"). Keys
// prefixed with the side ("LeftRingProximal") are accepted too.
type wireHand struct {
	Wrist   rig.Euler            `json:"wrist"`
	Fingers map[string]rig.Euler `json:"fingers"`
}

func (w *wireHand) solution(side rig.Side) *HandSolution {
	h := &HandSolution{Wrist: w.Wrist}
	for f := rig.Finger(0); int(f) < rig.NumFingers; f++ {
		for s := rig.Segment(0); int(s) < rig.NumSegments; s++ {
			key := f.String() + s.String()
			e, ok := w.Fingers[key]
			if !ok {
				e = w.Fingers[string(side)+key]
			}
			h.Fingers[f][s] = e
		}
	}
	return h
}
