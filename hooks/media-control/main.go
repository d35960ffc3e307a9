// Package main is a hook that drives macOS media keys from tracking
// events, e.g. pausing music while someone is performing.
//
// The manifest config maps event names to actions:
//
//	{"tracking.live": "media-play-pause", "tracking.fallback": "media-play-pause"}
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Request is the event written to stdin by the hook executor.
type Request struct {
	Event  string          `json:"event"`
	State  string          `json:"state"`
	Clip   string          `json:"clip"`
	Config json.RawMessage `json:"config"`
}

// Response is written to stdout for the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type actionHandler func() error

var actionHandlers = map[string]actionHandler{
	"volume-up":        volumeUp,
	"volume-down":      volumeDown,
	"volume-mute":      volumeMute,
	"media-play-pause": mediaPlayPause,
	"media-next":       mediaNext,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	action, err := actionFor(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	if action == "" {
		writeSuccessResponse()
		return
	}

	handler, ok := actionHandlers[action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", action))
		return
	}
	if err := handler(); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", action, err))
		return
	}
	writeSuccessResponse()
}

// actionFor looks up the configured action for req.Event. Events with
// no mapping return "".
func actionFor(req Request) (string, error) {
	if len(req.Config) == 0 {
		return "", nil
	}
	var bindings map[string]string
	if err := json.Unmarshal(req.Config, &bindings); err != nil {
		return "", fmt.Errorf("failed to parse config: %w", err)
	}
	return bindings[req.Event], nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func volumeUp() error {
	return runAppleScript(`set volume output volume ((output volume of (get volume settings)) + 10)`)
}

func volumeDown() error {
	return runAppleScript(`set volume output volume ((output volume of (get volume settings)) - 10)`)
}

func volumeMute() error {
	return runAppleScript(`set volume output muted (not (output muted of (get volume settings)))`)
}

// mediaPlayPause presses the play/pause media key.
func mediaPlayPause() error {
	return runAppleScript(`tell application "System Events"
	key code 100
end tell`)
}

// mediaNext presses the next track media key.
func mediaNext() error {
	return runAppleScript(`tell application "System Events"
	key code 101
end tell`)
}
