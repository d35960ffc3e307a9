// Package rig models an avatar skeleton and resolves canonical humanoid
// joints onto whatever naming scheme the loaded asset uses.
package rig

import "fmt"

// JointName is a canonical humanoid role (Hips, LeftUpperArm, ...).
// The set is closed; Valid reports membership.
type JointName string

// Body joints.
const (
	Hips          JointName = "Hips"
	Spine         JointName = "Spine"
	Chest         JointName = "Chest"
	Neck          JointName = "Neck"
	Head          JointName = "Head"
	LeftUpperArm  JointName = "LeftUpperArm"
	LeftLowerArm  JointName = "LeftLowerArm"
	RightUpperArm JointName = "RightUpperArm"
	RightLowerArm JointName = "RightLowerArm"
	LeftHand      JointName = "LeftHand"
	RightHand     JointName = "RightHand"
	LeftUpperLeg  JointName = "LeftUpperLeg"
	LeftLowerLeg  JointName = "LeftLowerLeg"
	RightUpperLeg JointName = "RightUpperLeg"
	RightLowerLeg JointName = "RightLowerLeg"
)

// Side selects the left or right half of the body.
type Side string

const (
	Left  Side = "Left"
	Right Side = "Right"
)

// Sides lists both sides, left first.
var Sides = [...]Side{Left, Right}

func (s Side) prefix() string {
	if s == Left {
		return "l"
	}
	return "r"
}

// Finger identifies a digit of the hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Little
	NumFingers int = 5
)

var fingerNames = [...]string{"Thumb", "Index", "Middle", "Ring", "Little"}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return fmt.Sprintf("Finger(%d)", int(f))
	}
	return fingerNames[f]
}

// mixamoName is the digit name used by Mixamo exports.
func (f Finger) mixamoName() string {
	if f == Little {
		return "Pinky"
	}
	return f.String()
}

// Segment identifies a phalanx, counted outward from the palm.
type Segment int

const (
	Proximal Segment = iota
	Intermediate
	Distal
	NumSegments int = 3
)

var segmentNames = [...]string{"Proximal", "Intermediate", "Distal"}

func (s Segment) String() string {
	if s < 0 || int(s) >= NumSegments {
		return fmt.Sprintf("Segment(%d)", int(s))
	}
	return segmentNames[s]
}

// HandJoint returns the wrist joint for a side.
func HandJoint(side Side) JointName {
	return JointName(string(side) + "Hand")
}

// FingerJoint returns the canonical name of one finger segment,
// e.g. LeftRingProximal.
func FingerJoint(side Side, f Finger, s Segment) JointName {
	return JointName(string(side) + f.String() + s.String())
}

var (
	allJoints []JointName
	jointSet  = map[JointName]struct{}{}
)

func init() {
	allJoints = []JointName{
		Hips, Spine, Chest, Neck, Head,
		LeftUpperArm, LeftLowerArm, RightUpperArm, RightLowerArm,
		LeftHand, RightHand,
		LeftUpperLeg, LeftLowerLeg, RightUpperLeg, RightLowerLeg,
	}
	for _, side := range Sides {
		for f := Finger(0); int(f) < NumFingers; f++ {
			for s := Segment(0); int(s) < NumSegments; s++ {
				allJoints = append(allJoints, FingerJoint(side, f, s))
			}
		}
	}
	for _, j := range allJoints {
		jointSet[j] = struct{}{}
	}
}

// AllJoints returns every canonical joint in a stable order.
func AllJoints() []JointName {
	out := make([]JointName, len(allJoints))
	copy(out, allJoints)
	return out
}

// Valid reports whether j is a canonical joint.
func (j JointName) Valid() bool {
	_, ok := jointSet[j]
	return ok
}
