package detector

import "gocv.io/x/gocv"

// Detector defines the interface for holistic landmark detection.
type Detector interface {
	// Detect analyzes a video frame. A frame with nobody in it yields an
	// empty Result, not an error.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds options forwarded to the holistic model.
type Config struct {
	// ModelComplexity selects the pose model size (0, 1 or 2).
	ModelComplexity int

	// SmoothLandmarks enables the model's temporal filter.
	SmoothLandmarks bool

	// RefineFace adds iris landmarks to the face mesh.
	RefineFace bool

	// MinDetectionConf is the minimum detection confidence (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// Solve asks the service to run the kinematic solver and attach
	// per-joint rotations to every result.
	Solve bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity:  1,
		SmoothLandmarks:  true,
		RefineFace:       true,
		MinDetectionConf: 0.7,
		MinTrackingConf:  0.7,
		Solve:            true,
	}
}
