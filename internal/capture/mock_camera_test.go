package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen before Open, got %v", err)
	}
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames after playback, got %v", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("expected 2 reads, got %d", cam.Reads())
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	if err := cam.Open(); err != nil {
		t.Fatal(err)
	}
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_FailOpen(t *testing.T) {
	cam := NewMockCamera(nil, true)
	boom := errors.New("device busy")
	cam.FailOpen(boom)

	if err := cam.Open(); !errors.Is(err, boom) {
		t.Errorf("expected open failure, got %v", err)
	}
	if cam.IsOpen() {
		t.Error("camera should stay closed")
	}

	cam.FailOpen(nil)
	if err := cam.Open(); err != nil {
		t.Errorf("expected open to succeed, got %v", err)
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames with no frames, got %v", err)
	}
}
