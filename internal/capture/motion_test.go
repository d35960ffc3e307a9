package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{name: "explicit", threshold: 5.0, want: 5.0},
		{name: "zero uses default", threshold: 0, want: DefaultMotionThreshold},
		{name: "negative uses default", threshold: -2, want: DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if got := md.Threshold(); got != tt.want {
				t.Errorf("Threshold() = %f, want %f", got, tt.want)
			}
			if md.initialized {
				t.Error("motion detector should start without a baseline")
			}
		})
	}
}

func TestMotionDetector_Detect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	black2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black2.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md := NewMotionDetector(1.0)
	defer md.Close()

	if detected, pct := md.Detect(&black); detected || pct != 0 {
		t.Errorf("first frame only sets the baseline, got %v %f", detected, pct)
	}
	if detected, pct := md.Detect(&black2); detected {
		t.Errorf("identical frames should not detect motion, changed %f", pct)
	}
	detected, pct := md.Detect(&white)
	if !detected || pct < 50 {
		t.Errorf("black to white should detect motion, got %v %f", detected, pct)
	}
}

func TestMotionDetector_ResetAndClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	if !md.initialized {
		t.Error("detector should hold a baseline after Detect")
	}

	md.Reset()
	if md.initialized || !md.prevGray.Empty() {
		t.Error("Reset should drop the baseline")
	}

	md.Detect(&frame)
	md.Close()
	md.Close()
	if detected, _ := md.Detect(&frame); detected {
		t.Error("first frame after Close should not detect motion")
	}
	md.Close()
}

func TestMotionDetector_Nil(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()
	if detected, pct := md.Detect(nil); detected || pct != 0 {
		t.Errorf("nil frame should be ignored, got %v %f", detected, pct)
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.Threshold() != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.Threshold())
	}
	md.SetThreshold(-1.0)
	if md.Threshold() != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}
