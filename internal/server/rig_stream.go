package server

import (
	"encoding/json"
	"log"
	"sync/atomic"

	"github.com/ayusman/kathakali/internal/session"
)

// RigStream publishes every rendered frame's joint transforms over a
// websocket. It is the session's renderer.
type RigStream struct {
	*Hub
	every   uint64
	dropped atomic.Uint64
}

// NewRigStream creates the stream. every > 1 sends only every n-th frame.
func NewRigStream(every int, logger *log.Logger) *RigStream {
	if every < 1 {
		every = 1
	}
	return &RigStream{Hub: NewHub("rig", logger), every: uint64(every)}
}

type rigFrame struct {
	Seq     uint64  `json:"seq"`
	DeltaMS float64 `json:"deltaMs"`
	State   string  `json:"state"`
	Pose    any     `json:"pose,omitempty"`
}

// WantsPose reports whether frame seq will be sent to anyone.
func (s *RigStream) WantsPose(seq uint64) bool {
	return seq%s.every == 0 && s.Clients() > 0
}

// Render implements session.Renderer.
func (s *RigStream) Render(f session.Frame) {
	if !s.WantsPose(f.Seq) {
		return
	}
	msg := rigFrame{
		Seq:     f.Seq,
		DeltaMS: float64(f.Delta.Microseconds()) / 1000,
		State:   f.State,
	}
	if f.Snapshot != nil {
		msg.Pose = f.Snapshot
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.dropped.Add(1)
		return
	}
	s.Broadcast(data)
}

// Dropped returns how many frames failed to encode.
func (s *RigStream) Dropped() uint64 {
	return s.dropped.Load()
}
