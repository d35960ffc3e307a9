package server

import (
	"encoding/json"
	"log"

	"github.com/ayusman/kathakali/internal/detector"
)

// LandmarksHub publishes raw detector results for debugging overlays.
type LandmarksHub struct {
	*Hub
}

// NewLandmarksHub creates the hub.
func NewLandmarksHub(logger *log.Logger) *LandmarksHub {
	return &LandmarksHub{Hub: NewHub("landmarks", logger)}
}

type landmarksMessage struct {
	Pose      []detector.Landmark `json:"pose,omitempty"`
	Face      []detector.Landmark `json:"face,omitempty"`
	LeftHand  []detector.Landmark `json:"leftHand,omitempty"`
	RightHand []detector.Landmark `json:"rightHand,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// Publish sends res to subscribers. Nothing is encoded without any.
func (h *LandmarksHub) Publish(res *detector.Result) {
	if res == nil || h.Clients() == 0 {
		return
	}
	data, err := json.Marshal(landmarksMessage{
		Pose:      res.PoseLandmarks,
		Face:      res.FaceLandmarks,
		LeftHand:  res.LeftHandLandmarks,
		RightHand: res.RightHandLandmarks,
		Timestamp: res.Timestamp,
	})
	if err != nil {
		return
	}
	h.Broadcast(data)
}
