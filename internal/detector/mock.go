package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	result *Result
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetResult sets the result that will be returned by Detect.
func (m *MockDetector) SetResult(r *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = r
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many frames Detect has seen.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured result or error. A nil result
// becomes an empty one.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &Result{}, nil
	}
	r := *m.result
	return &r, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

func landmarks(n int, base Landmark) []Landmark {
	out := make([]Landmark, n)
	for i := range out {
		out[i] = Landmark{
			X:          base.X + float64(i%7)*0.01,
			Y:          base.Y + float64(i/7)*0.01,
			Z:          base.Z,
			Visibility: 0.9,
		}
	}
	return out
}

// FaceOnlyResult returns a preset with a face and its solved head turn
// but no body or hands.
func FaceOnlyResult() *Result {
	return &Result{
		FaceLandmarks: landmarks(NumRefinedFaceLandmarks, Landmark{X: 0.45, Y: 0.3}),
		Solved:        []byte(faceSolved),
	}
}

// FullBodyResult returns a preset with body, face and both hands.
func FullBodyResult() *Result {
	return &Result{
		PoseLandmarks:      landmarks(NumPoseLandmarks, Landmark{X: 0.3, Y: 0.2}),
		PoseWorldLandmarks: landmarks(NumPoseLandmarks, Landmark{X: -0.2, Y: -0.5}),
		FaceLandmarks:      landmarks(NumRefinedFaceLandmarks, Landmark{X: 0.45, Y: 0.3}),
		LeftHandLandmarks:  landmarks(NumHandLandmarks, Landmark{X: 0.7, Y: 0.6}),
		RightHandLandmarks: landmarks(NumHandLandmarks, Landmark{X: 0.2, Y: 0.6}),
		Solved:             []byte(fullSolved),
	}
}

// EmptyResult returns a frame in which nothing was detected.
func EmptyResult() *Result {
	return &Result{}
}

const faceSolved = `{
  "face": {
    "head": {"x": 0.2, "y": -0.3, "z": 0.1},
    "eye": {"l": 0.9, "r": 0.9},
    "mouth": {"shape": {"A": 0.4, "E": 0.1, "I": 0.0, "O": 0.2, "U": 0.0}},
    "pupil": {"x": 0.1, "y": -0.05}
  }
}`

const fullSolved = `{
  "face": {
    "head": {"x": 0.2, "y": -0.3, "z": 0.1},
    "eye": {"l": 0.9, "r": 0.9},
    "mouth": {"shape": {"A": 0.4, "E": 0.1, "I": 0.0, "O": 0.2, "U": 0.0}},
    "pupil": {"x": 0.1, "y": -0.05}
  },
  "pose": {
    "Hips": {"rotation": {"x": 1.0, "y": 0.4, "z": -1.0}, "position": {"x": 0.1, "y": 0.0, "z": 0.3}},
    "Spine": {"x": 0.1, "y": 0.2, "z": 0.05},
    "LeftUpperArm": {"x": 0.3, "y": 0.1, "z": -1.2},
    "LeftLowerArm": {"x": 0.0, "y": 0.4, "z": 0.2},
    "RightUpperArm": {"x": 0.3, "y": -0.1, "z": 1.2},
    "RightLowerArm": {"x": 0.0, "y": -0.4, "z": -0.2},
    "LeftHand": {"x": 0.0, "y": 0.1, "z": 0.25},
    "RightHand": {"x": 0.0, "y": -0.1, "z": -0.25},
    "LeftUpperLeg": {"x": 0.05, "y": 0.0, "z": 0.02, "rotationOrder": "XYZ"},
    "LeftLowerLeg": {"x": -0.1, "y": 0.0, "z": 0.0, "rotationOrder": "XYZ"},
    "RightUpperLeg": {"x": 0.05, "y": 0.0, "z": -0.02, "rotationOrder": "XYZ"},
    "RightLowerLeg": {"x": -0.1, "y": 0.0, "z": 0.0, "rotationOrder": "XYZ"}
  },
  "leftHand": {
    "wrist": {"x": 0.3, "y": 0.2, "z": 0.9},
    "fingers": {"IndexProximal": {"x": 0.0, "y": 0.0, "z": 0.5}, "ThumbDistal": {"x": 0.1, "y": 0.2, "z": 0.0}}
  },
  "rightHand": {
    "wrist": {"x": -0.3, "y": -0.2, "z": -0.9},
    "fingers": {"IndexProximal": {"x": 0.0, "y": 0.0, "z": -0.5}}
  }
}`
