package main

import (
	"encoding/json"
	"testing"
)

func TestActionFor(t *testing.T) {
	cfg := json.RawMessage(`{"tracking.live":"media-play-pause"}`)

	tests := []struct {
		name    string
		req     Request
		want    string
		wantErr bool
	}{
		{"mapped", Request{Event: "tracking.live", Config: cfg}, "media-play-pause", false},
		{"unmapped", Request{Event: "clip.play", Config: cfg}, "", false},
		{"no config", Request{Event: "tracking.live"}, "", false},
		{"bad config", Request{Event: "tracking.live", Config: json.RawMessage(`[1]`)}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := actionFor(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("actionFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("actionFor() = %q, want %q", got, tt.want)
			}
		})
	}

	for _, action := range []string{"media-play-pause", "media-next", "volume-mute"} {
		if _, ok := actionHandlers[action]; !ok {
			t.Errorf("missing handler for %s", action)
		}
	}
}
