// Package api provides the HTTP handlers for the clip library, playback,
// tracking, settings and rig upload.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/session"
)

// Controller is the animation session as the API drives it.
type Controller interface {
	Status() session.Status
	Enable() error
	Disable()
	PlayClip(index int) error
	NextClip() error
	StopClip(expedited bool)
	SetSkeleton(sk *rig.Skeleton)
	Snapshot() (rig.Snapshot, bool)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
