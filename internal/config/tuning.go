package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayusman/kathakali/internal/retarget"
	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/session"
	"gopkg.in/yaml.v3"
)

// Tuning is the optional YAML file that adjusts retargeting for a
// particular rig. Every field is optional; unset fields keep defaults.
//
//	sign_table: passthrough
//	swap_hands: false
//	signs:
//	  LeftUpperArm: {x: -1, y: 1, z: -1}
//	channels:
//	  arms: {dampening: 1, blend: 0.25}
//	aliases:
//	  Hips: [pelvis]
//	fallback_timeout: 3s
type Tuning struct {
	SignTable string                   `yaml:"sign_table"`
	Signs     map[string]SignOverride  `yaml:"signs"`
	SwapHands *bool                    `yaml:"swap_hands"`
	DriveLegs *bool                    `yaml:"drive_legs"`
	Channels  map[string]ChannelConfig `yaml:"channels"`
	Aliases   map[string][]string      `yaml:"aliases"`

	IdleYawSpeed    *float64      `yaml:"idle_yaw_speed"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
	CycleInterval   time.Duration `yaml:"cycle_interval"`
	FadeIn          time.Duration `yaml:"fade_in"`
	FadeOut         time.Duration `yaml:"fade_out"`
}

// SignOverride replaces one joint's signs. Omitted axes default to +1.
type SignOverride struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
	Z *float64 `yaml:"z"`
}

// ChannelConfig overrides part of a channel.
type ChannelConfig struct {
	Dampening *float64 `yaml:"dampening"`
	Blend     *float64 `yaml:"blend"`
}

// LoadTuning reads path. A missing file yields an empty Tuning.
func LoadTuning(path string) (*Tuning, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Tuning{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open tuning: %w", err)
	}
	defer f.Close()
	t, err := DecodeTuning(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTuning decodes a YAML document.
func ParseTuning(data []byte) (*Tuning, error) {
	return DecodeTuning(bytes.NewReader(data))
}

// DecodeTuning decodes and validates a YAML document. Unknown keys are
// rejected so typos do not pass silently.
func DecodeTuning(r io.Reader) (*Tuning, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Tuning
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks names and ranges.
func (t *Tuning) Validate() error {
	if _, err := retarget.SignTableFor(t.SignTable); err != nil {
		return err
	}
	for name, s := range t.Signs {
		if !rig.JointName(name).Valid() {
			return fmt.Errorf("signs: unknown joint %q", name)
		}
		for _, v := range []*float64{s.X, s.Y, s.Z} {
			if v != nil && *v != 1 && *v != -1 {
				return fmt.Errorf("signs: %s: sign must be 1 or -1, got %v", name, *v)
			}
		}
	}
	for name, c := range t.Channels {
		if _, ok := channelFamilies[name]; !ok {
			return fmt.Errorf("channels: unknown family %q", name)
		}
		if c.Blend != nil && (*c.Blend < 0 || *c.Blend > 1) {
			return fmt.Errorf("channels: %s: blend must be within [0, 1], got %v", name, *c.Blend)
		}
	}
	for name := range t.Aliases {
		if !rig.JointName(name).Valid() {
			return fmt.Errorf("aliases: unknown joint %q", name)
		}
	}
	if t.FallbackTimeout < 0 || t.CycleInterval < 0 || t.FadeIn < 0 || t.FadeOut < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// channelFamilies maps YAML family names to the tuning field they set.
var channelFamilies = map[string]func(*retarget.Tuning) *retarget.Channel{
	"hips_rotation": func(t *retarget.Tuning) *retarget.Channel { return &t.HipsRotation },
	"hips_position": func(t *retarget.Tuning) *retarget.Channel { return &t.HipsPosition },
	"spine":         func(t *retarget.Tuning) *retarget.Channel { return &t.Spine },
	"chest":         func(t *retarget.Tuning) *retarget.Channel { return &t.Chest },
	"arms":          func(t *retarget.Tuning) *retarget.Channel { return &t.Arms },
	"legs":          func(t *retarget.Tuning) *retarget.Channel { return &t.Legs },
	"wrists":        func(t *retarget.Tuning) *retarget.Channel { return &t.Wrists },
	"fingers":       func(t *retarget.Tuning) *retarget.Channel { return &t.Fingers },
	"neck":          func(t *retarget.Tuning) *retarget.Channel { return &t.Neck },
	"head":          func(t *retarget.Tuning) *retarget.Channel { return &t.Head },
}

// MapperConfig builds the retarget config for variant with this file's
// overrides on top. An empty variant uses the file's sign_table.
func (t *Tuning) MapperConfig(variant string) (retarget.Config, error) {
	if variant == "" {
		variant = t.SignTable
	}
	cfg, err := retarget.ConfigFor(variant)
	if err != nil {
		return retarget.Config{}, err
	}

	if len(t.Signs) > 0 {
		overrides := make(retarget.SignTable, len(t.Signs))
		for name, s := range t.Signs {
			overrides[rig.JointName(name)] = retarget.Signs{X: sign(s.X), Y: sign(s.Y), Z: sign(s.Z)}
		}
		cfg.Signs = cfg.Signs.With(overrides)
	}
	for name, c := range t.Channels {
		ch := channelFamilies[name](&cfg.Tuning)
		if c.Dampening != nil {
			ch.Dampening = *c.Dampening
		}
		if c.Blend != nil {
			ch.Blend = *c.Blend
		}
	}
	if t.SwapHands != nil {
		cfg.SwapHands = *t.SwapHands
	}
	if t.DriveLegs != nil {
		cfg.DriveLegs = *t.DriveLegs
	}
	return cfg, nil
}

func sign(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}

// SessionConfig returns the session defaults with this file applied.
func (t *Tuning) SessionConfig() (session.Config, error) {
	cfg := session.DefaultConfig()

	mapper, err := t.MapperConfig("")
	if err != nil {
		return session.Config{}, err
	}
	cfg.Mapper = mapper

	if len(t.Aliases) > 0 {
		extra := make(rig.AliasTable, len(t.Aliases))
		for name, aliases := range t.Aliases {
			extra[rig.JointName(name)] = aliases
		}
		cfg.Aliases = cfg.Aliases.With(extra)
	}
	if t.IdleYawSpeed != nil {
		cfg.IdleYawSpeed = *t.IdleYawSpeed
	}
	if t.FallbackTimeout > 0 {
		cfg.Tracking.Timeout = t.FallbackTimeout
	}
	if t.CycleInterval > 0 {
		cfg.Tracking.CycleInterval = t.CycleInterval
	}
	if t.FadeIn > 0 {
		cfg.Player.FadeIn = t.FadeIn
	}
	if t.FadeOut > 0 {
		cfg.Player.FadeOut = t.FadeOut
	}
	return cfg, nil
}
