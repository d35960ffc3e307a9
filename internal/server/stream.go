package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameBuffer keeps the latest camera frame as JPEG for MJPEG viewers.
// Frames are only encoded while someone is watching.
type FrameBuffer struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	viewers int
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Publish encodes frame when there are viewers. The caller keeps
// ownership of frame.
func (b *FrameBuffer) Publish(frame *gocv.Mat) {
	b.mu.Lock()
	watching := b.viewers > 0
	b.mu.Unlock()
	if !watching || frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	b.mu.Lock()
	b.jpeg = data
	b.seq++
	b.mu.Unlock()
}

// Set stores an already encoded JPEG.
func (b *FrameBuffer) Set(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = jpeg
	b.seq++
}

func (b *FrameBuffer) latest(after uint64) ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == after {
		return nil, after
	}
	return b.jpeg, b.seq
}

func (b *FrameBuffer) watch(delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewers += delta
}

// StreamHandler serves the frame buffer as MJPEG.
type StreamHandler struct {
	frames   *FrameBuffer
	interval time.Duration
}

// NewStreamHandler polls frames at roughly 15 fps.
func NewStreamHandler(frames *FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames, interval: 66 * time.Millisecond}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.frames.watch(1)
	defer h.frames.watch(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		var jpeg []byte
		jpeg, seq = h.frames.latest(seq)
		if jpeg == nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
