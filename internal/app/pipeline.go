package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/kathakali/internal/capture"
)

// cameraFeed is the tracking feed. The session starts and stops it
// while holding its lock, so neither side waits for the detection
// goroutine: Stop signals it and closes the camera, and a goroutine
// still finishing a frame exits on its next tick.
type cameraFeed struct {
	app *App
}

func (f *cameraFeed) Start() error {
	a := f.app
	if err := a.camera.Open(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.feedStop != nil {
		return nil
	}
	stop := make(chan struct{})
	a.feedStop = stop

	rate := capture.NewRateGovernor(a.config.Rate)
	a.camera.SetFPS(rate.FPS())
	go a.runPipeline(stop, capture.NewMotionDetector(a.config.MotionThresh), rate)

	a.logger.Println("Detection pipeline started")
	return nil
}

func (f *cameraFeed) Stop() {
	a := f.app
	a.mu.Lock()
	if a.feedStop != nil {
		close(a.feedStop)
		a.feedStop = nil
	}
	a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		a.logger.Printf("Error closing camera: %v", err)
	}
	a.logger.Println("Detection pipeline stopped")
}

// runPipeline reads frames at the governed rate and feeds every
// detector result to the session.
//
//  1. Read a frame
//  2. Motion decides between the idle and active rate
//  3. Publish the frame to MJPEG viewers
//  4. Detect landmarks
//  5. Publish landmarks and drive the session
func (a *App) runPipeline(stop <-chan struct{}, motion *capture.MotionDetector, rate *capture.RateGovernor) {
	defer motion.Close()

	ticker := time.NewTicker(rate.Interval())
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if err := a.processFrame(motion, rate, ticker); err != nil {
			// Log a failure once until it changes.
			if lastErr == nil || err.Error() != lastErr.Error() {
				a.logger.Printf("Pipeline: %v", err)
			}
			lastErr = err
			continue
		}
		lastErr = nil
	}
}

func (a *App) processFrame(motion *capture.MotionDetector, rate *capture.RateGovernor, ticker *time.Ticker) error {
	frame, err := a.camera.ReadFrame()
	if errors.Is(err, capture.ErrCameraNotOpen) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	moved, _ := motion.Detect(frame)
	if fps, changed := rate.Observe(moved, time.Now()); changed {
		a.camera.SetFPS(fps)
		ticker.Reset(rate.Interval())
		if rate.Active() {
			a.logger.Println("Switched to active mode")
		} else {
			a.logger.Println("Switched to idle mode")
		}
	}

	a.frames.Publish(frame)

	d := a.Detector()
	if d == nil {
		return nil
	}
	res, err := d.Detect(frame)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	a.landmarks.Publish(res)
	a.session.OnDetectorResult(res)
	return nil
}
