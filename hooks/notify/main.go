// Package main is a hook that shows a desktop notification when
// tracking changes state.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request is the event written to stdin by the hook executor.
type Request struct {
	Event     string          `json:"event"`
	State     string          `json:"state"`
	Clip      string          `json:"clip"`
	SessionID string          `json:"sessionId"`
	Config    json.RawMessage `json:"config"`
}

// Response is written to stdout for the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// messages maps event names to notification text.
var messages = map[string]string{
	"tracking.live":     "Tracking live",
	"tracking.cooldown": "Signal lost",
	"tracking.fallback": "No one in view, playing clips",
	"tracking.disabled": "Tracking off",
	"clip.play":         "Playing %s",
	"clip.stop":         "Stopped %s",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	text, ok := message(req)
	if !ok {
		writeSuccessResponse()
		return
	}

	if err := notify("Kathakali", text); err != nil {
		writeErrorResponse(fmt.Sprintf("notify failed: %v", err))
		return
	}
	writeSuccessResponse()
}

// message returns the notification for req, false for events with none.
func message(req Request) (string, bool) {
	format, ok := messages[req.Event]
	if !ok {
		return "", false
	}
	if !strings.Contains(format, "%s") {
		return format, true
	}
	clip := req.Clip
	if clip == "" {
		clip = "clip"
	}
	return fmt.Sprintf(format, clip), true
}

func notify(title, text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e", fmt.Sprintf("display notification %q with title %q", text, title))
	default:
		cmd = exec.Command("notify-send", title, text)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}
