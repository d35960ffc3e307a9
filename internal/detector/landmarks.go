// Package detector provides holistic body, face and hand landmark detection.
package detector

import "encoding/json"

// Landmark counts produced by the holistic model.
const (
	NumPoseLandmarks        = 33
	NumHandLandmarks        = 21
	NumFaceLandmarks        = 468
	NumRefinedFaceLandmarks = 478
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist     = 0
	ThumbCMC  = 1
	ThumbMCP  = 2
	ThumbIP   = 3
	ThumbTip  = 4
	IndexMCP  = 5
	IndexPIP  = 6
	IndexDIP  = 7
	IndexTip  = 8
	MiddleMCP = 9
	MiddlePIP = 10
	MiddleDIP = 11
	MiddleTip = 12
	RingMCP   = 13
	RingPIP   = 14
	RingDIP   = 15
	RingTip   = 16
	PinkyMCP  = 17
	PinkyPIP  = 18
	PinkyDIP  = 19
	PinkyTip  = 20
)

// Landmark is one tracked point. Image landmarks are normalized to the
// frame; world landmarks are in meters around the hips.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Result is the holistic output for one frame. Hand lists carry the
// detector's own handedness labels, which are mirrored relative to the
// avatar for a selfie camera.
type Result struct {
	PoseLandmarks      []Landmark `json:"poseLandmarks,omitempty"`
	PoseWorldLandmarks []Landmark `json:"poseWorldLandmarks,omitempty"`
	FaceLandmarks      []Landmark `json:"faceLandmarks,omitempty"`
	LeftHandLandmarks  []Landmark `json:"leftHandLandmarks,omitempty"`
	RightHandLandmarks []Landmark `json:"rightHandLandmarks,omitempty"`

	// Solved holds the per-joint rotations the holistic service derived
	// from the landmarks, if it ran the kinematic solver.
	Solved json.RawMessage `json:"solved,omitempty"`

	// Timestamp is the capture time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// HasPose reports whether a body was found. Tracking liveness is keyed
// on this alone.
func (r *Result) HasPose() bool {
	return r != nil && len(r.PoseLandmarks) > 0
}

// HasFace reports whether a face mesh was found.
func (r *Result) HasFace() bool {
	return r != nil && len(r.FaceLandmarks) > 0
}

// HasRefinedFace reports whether the face mesh includes iris points.
func (r *Result) HasRefinedFace() bool {
	return r != nil && len(r.FaceLandmarks) >= NumRefinedFaceLandmarks
}

// Empty reports whether no landmark group was found.
func (r *Result) Empty() bool {
	return r == nil || (len(r.PoseLandmarks) == 0 && len(r.FaceLandmarks) == 0 &&
		len(r.LeftHandLandmarks) == 0 && len(r.RightHandLandmarks) == 0)
}
