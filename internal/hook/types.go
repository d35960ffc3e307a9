// Package hook runs external executables when the tracking session
// changes state.
package hook

import (
	"encoding/json"
	"time"
)

// Manifest describes a hook. It is read from hook.json in the hook's
// directory.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event     string          `json:"event"`
	State     string          `json:"state"`
	Clip      string          `json:"clip,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	At        time.Time       `json:"at"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribes to event. "*" matches
// every event.
func (h *Hook) Handles(event string) bool {
	for _, e := range h.Manifest.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}
