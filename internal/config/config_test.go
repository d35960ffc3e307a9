package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/kathakali/internal/retarget"
	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/session"
	"github.com/google/go-cmp/cmp"
)

func TestParseFlags(t *testing.T) {
	t.Run("defaults follow data dir", func(t *testing.T) {
		f, err := ParseFlags([]string{"-data", "/tmp/k"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		want := Flags{
			Addr:       ":8080",
			DataDir:    "/tmp/k",
			TuningPath: filepath.Join("/tmp/k", "tuning.yaml"),
			HookDir:    filepath.Join("/tmp/k", "hooks"),
		}
		if diff := cmp.Diff(want, f); diff != "" {
			t.Errorf("flags mismatch (-want +got):\n%s", diff)
		}
		if f.DBPath() != filepath.Join("/tmp/k", "kathakali.db") {
			t.Errorf("unexpected db path %q", f.DBPath())
		}
	})

	t.Run("explicit", func(t *testing.T) {
		f, err := ParseFlags([]string{
			"-addr", ":9000", "-camera", "2", "-tuning", "rig.yaml",
			"-hooks", "/etc/hooks", "-web", "/srv/web", "-tray", "-mock-camera",
		}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if f.Addr != ":9000" || f.CameraID != 2 || f.TuningPath != "rig.yaml" || f.HookDir != "/etc/hooks" {
			t.Errorf("unexpected flags %+v", f)
		}
		if !f.Tray || !f.MockCamera || f.FindWebDir() != "/srv/web" {
			t.Errorf("unexpected flags %+v", f)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, args := range [][]string{{"-camera", "-1"}, {"-nope"}, {"extra"}} {
			if _, err := ParseFlags(args, &bytes.Buffer{}); err == nil {
				t.Errorf("expected error for %v", args)
			}
		}
	})
}

func TestFindWebDir(t *testing.T) {
	data := t.TempDir()
	f := Flags{DataDir: data}
	if dir := f.FindWebDir(); dir != "" && !strings.HasSuffix(dir, "web") {
		t.Errorf("unexpected web dir %q", dir)
	}

	web := filepath.Join(data, "web")
	if err := os.MkdirAll(web, 0755); err != nil {
		t.Fatal(err)
	}
	if got := f.FindWebDir(); got == "" {
		t.Error("expected the data web dir to be found")
	}
}

func TestLoadTuning_MissingFile(t *testing.T) {
	tun, err := LoadTuning(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	cfg, err := tun.SessionConfig()
	if err != nil {
		t.Fatalf("session config: %v", err)
	}
	def := session.DefaultConfig()
	if cfg.IdleYawSpeed != def.IdleYawSpeed || cfg.Tracking.Timeout != def.Tracking.Timeout {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if diff := cmp.Diff(retarget.DefaultConfig(), cfg.Mapper); diff != "" {
		t.Errorf("mapper mismatch (-want +got):\n%s", diff)
	}
}

const tuningYAML = `
sign_table: passthrough
swap_hands: false
drive_legs: false
signs:
  LeftUpperArm: {x: -1, z: -1}
  Head: {x: 1, y: 1, z: 1}
channels:
  arms: {blend: 0.25}
  hips_position: {dampening: 0.5}
aliases:
  Hips: [pelvis]
idle_yaw_speed: 0.2
fallback_timeout: 3s
cycle_interval: 8s
fade_in: 250ms
`

func TestTuning_SessionConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(tuningYAML), 0644); err != nil {
		t.Fatal(err)
	}
	tun, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := tun.SessionConfig()
	if err != nil {
		t.Fatalf("session config: %v", err)
	}

	m := cfg.Mapper
	if m.SwapHands || m.DriveLegs {
		t.Error("expected hand swap and legs disabled")
	}
	if got := m.Signs[rig.LeftUpperArm]; got != (retarget.Signs{X: -1, Y: 1, Z: -1}) {
		t.Errorf("unexpected LeftUpperArm signs %+v", got)
	}
	if _, ok := m.Signs[rig.Head]; ok {
		t.Error("an all-positive override removes the entry")
	}
	if m.Tuning.Arms != (retarget.Channel{Dampening: 1, Blend: 0.25}) {
		t.Errorf("unexpected arms channel %+v", m.Tuning.Arms)
	}
	if m.Tuning.HipsPosition != (retarget.Channel{Dampening: 0.5, Blend: 0.07}) {
		t.Errorf("unexpected hips position channel %+v", m.Tuning.HipsPosition)
	}
	if m.Tuning.Wrists.Blend != 0.3 {
		t.Errorf("passthrough wrists blend 0.3, got %v", m.Tuning.Wrists.Blend)
	}

	if cfg.Aliases[rig.Hips][0] != "pelvis" {
		t.Errorf("expected pelvis alias first, got %v", cfg.Aliases[rig.Hips])
	}
	if cfg.IdleYawSpeed != 0.2 || cfg.Tracking.Timeout != 3*time.Second || cfg.Tracking.CycleInterval != 8*time.Second {
		t.Errorf("unexpected timing %+v %+v", cfg.IdleYawSpeed, cfg.Tracking)
	}
	if cfg.Player.FadeIn != 250*time.Millisecond || cfg.Player.FadeOut != 500*time.Millisecond {
		t.Errorf("unexpected fades %+v", cfg.Player)
	}
}

func TestTuning_MapperConfigVariant(t *testing.T) {
	tun, err := ParseTuning([]byte("channels:\n  head: {blend: 0.9}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	mirrored, err := tun.MapperConfig("")
	if err != nil {
		t.Fatal(err)
	}
	passthrough, err := tun.MapperConfig(retarget.VariantPassthrough)
	if err != nil {
		t.Fatal(err)
	}
	if mirrored.Tuning.Arms.Blend != 0.4 || passthrough.Tuning.Arms.Blend != 0.3 {
		t.Errorf("variant blends wrong: %v %v", mirrored.Tuning.Arms.Blend, passthrough.Tuning.Arms.Blend)
	}
	if mirrored.Tuning.Head.Blend != 0.9 || passthrough.Tuning.Head.Blend != 0.9 {
		t.Error("file overrides apply to every variant")
	}
	if _, err := tun.MapperConfig("sideways"); err == nil {
		t.Error("expected unknown variant error")
	}
}

func TestParseTuning_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "sign_tabel: mirrored\n"},
		{"unknown variant", "sign_table: sideways\n"},
		{"unknown joint", "signs:\n  Tail: {x: -1}\n"},
		{"bad sign", "signs:\n  Head: {x: 2}\n"},
		{"unknown family", "channels:\n  tail: {blend: 0.1}\n"},
		{"blend range", "channels:\n  arms: {blend: 1.5}\n"},
		{"alias joint", "aliases:\n  Tail: [tail]\n"},
		{"negative duration", "fallback_timeout: -1s\n"},
		{"malformed", "signs: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTuning([]byte(tt.yaml)); err == nil {
				t.Errorf("expected error for %q", tt.yaml)
			}
		})
	}
}

func TestParseTuning_Empty(t *testing.T) {
	tun, err := ParseTuning(nil)
	if err != nil {
		t.Fatalf("empty document should parse: %v", err)
	}
	if tun.SignTable != "" || len(tun.Signs) != 0 {
		t.Errorf("expected zero tuning, got %+v", tun)
	}
}
