package rig

import (
	"fmt"
	"strings"
)

// AliasTable lists, per canonical joint, the raw node names that may
// stand for it. Earlier entries are preferred. Names are compared
// case-insensitively.
type AliasTable map[JointName][]string

var bodyAliases = AliasTable{
	Hips:          {"mixamorigHips", "Hips", "hip", "pelvis", "root"},
	Spine:         {"mixamorigSpine", "Spine", "spine", "spine1"},
	Chest:         {"mixamorigSpine1", "Chest", "chest", "spine2", "spine3", "upperchest"},
	Neck:          {"mixamorigNeck", "Neck", "neck"},
	Head:          {"mixamorigHead", "Head", "head"},
	LeftUpperArm:  {"mixamorigLeftArm", "LeftUpperArm", "leftarm", "l_upperarm", "upperarm_l"},
	LeftLowerArm:  {"mixamorigLeftForeArm", "LeftLowerArm", "leftforearm", "l_forearm", "l_lowerarm", "leftelbow", "lowerarm_l"},
	RightUpperArm: {"mixamorigRightArm", "RightUpperArm", "rightarm", "r_upperarm", "upperarm_r"},
	RightLowerArm: {"mixamorigRightForeArm", "RightLowerArm", "rightforearm", "r_forearm", "r_lowerarm", "rightelbow", "lowerarm_r"},
	LeftHand:      {"mixamorigLeftHand", "LeftHand", "lefthand", "l_hand", "hand_l", "left_hand", "handleft"},
	RightHand:     {"mixamorigRightHand", "RightHand", "righthand", "r_hand", "hand_r", "right_hand", "handright"},
	LeftUpperLeg:  {"mixamorigLeftUpLeg", "LeftUpperLeg", "leftupleg", "l_upperleg", "leftthigh", "l_thigh", "thigh_l"},
	LeftLowerLeg:  {"mixamorigLeftLeg", "LeftLowerLeg", "leftleg", "l_lowerleg", "leftshin", "l_calf", "calf_l"},
	RightUpperLeg: {"mixamorigRightUpLeg", "RightUpperLeg", "rightupleg", "r_upperleg", "rightthigh", "r_thigh", "thigh_r"},
	RightLowerLeg: {"mixamorigRightLeg", "RightLowerLeg", "rightleg", "r_lowerleg", "rightshin", "r_calf", "calf_r"},
}

// DefaultAliasTable returns the built-in table covering Mixamo exports,
// VRM-style humanoid names and common lowercase conventions.
func DefaultAliasTable() AliasTable {
	t := make(AliasTable, len(allJoints))
	for j, names := range bodyAliases {
		t[j] = append([]string(nil), names...)
	}
	for _, side := range Sides {
		lower := strings.ToLower(string(side))
		for f := Finger(0); int(f) < NumFingers; f++ {
			digit := f.mixamoName()
			for s := Segment(0); int(s) < NumSegments; s++ {
				n := int(s) + 1
				t[FingerJoint(side, f, s)] = []string{
					fmt.Sprintf("mixamorig%sHand%s%d", side, digit, n),
					string(FingerJoint(side, f, s)),
					fmt.Sprintf("%s%s%d", lower, strings.ToLower(digit), n),
					fmt.Sprintf("%s_%s%d", side.prefix(), strings.ToLower(digit), n),
				}
			}
		}
	}
	return t.normalized()
}

// With returns a copy of t where extra aliases take priority over the
// existing ones. Unknown joints in extra are ignored.
func (t AliasTable) With(extra AliasTable) AliasTable {
	out := make(AliasTable, len(t))
	for j, names := range t {
		out[j] = append([]string(nil), names...)
	}
	for j, names := range extra {
		if !j.Valid() {
			continue
		}
		out[j] = append(append([]string(nil), names...), out[j]...)
	}
	return out.normalized()
}

// normalized lowercases every alias and drops duplicates, keeping order.
func (t AliasTable) normalized() AliasTable {
	for j, names := range t {
		seen := make(map[string]bool, len(names))
		kept := names[:0]
		for _, n := range names {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			kept = append(kept, n)
		}
		t[j] = kept
	}
	return t
}
