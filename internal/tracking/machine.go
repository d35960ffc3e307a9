// Package tracking decides whether live tracking or clip playback drives
// the rig.
//
// The machine moves between four states:
//
//	Disabled ──Enable──▶ WaitingForSignal ──pose──▶ Live
//	                          ▲                      │ no pose
//	                          └──timeout── Cooldown ◀┘
//
// Leaving Cooldown on timeout starts the fallback: clip 0 plays and the
// library auto-cycles, or the rig idles with a slow yaw when no clips are
// loaded. Any pose returns to Live and hands control back to tracking.
package tracking

import (
	"fmt"
	"log"
	"time"

	"github.com/ayusman/kathakali/internal/detector"
)

// State is the tracking lifecycle.
type State int

const (
	StateDisabled State = iota
	StateWaitingForSignal
	StateLive
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateWaitingForSignal:
		return "waiting"
	case StateLive:
		return "live"
	case StateCooldown:
		return "cooldown"
	}
	return "disabled"
}

// Defaults.
const (
	DefaultTimeout       = 2000 * time.Millisecond
	DefaultCycleInterval = 5 * time.Second
)

// Clips is the part of the clip player the machine drives.
type Clips interface {
	Play(index int) error
	StopAll()
	IsAnyPlaying() bool
	LoadedClipCount() int
}

// Rig is the part of the skeleton the machine resets.
type Rig interface {
	FaceViewer()
	ResetPose()
}

// Feed is the camera and detector pipeline.
type Feed interface {
	Start() error
	Stop()
}

// Transition describes one state change.
type Transition struct {
	From     State
	To       State
	Fallback bool
	At       time.Time
}

// Config holds the machine's timings.
type Config struct {
	// Timeout is how long Cooldown waits for a pose before falling back.
	Timeout time.Duration

	// CycleInterval is how long each clip plays during fallback.
	CycleInterval time.Duration

	Clock  Clock
	Logger *log.Logger
}

// DefaultConfig returns a 2 s timeout and 5 s clip cycle on the real clock.
func DefaultConfig() Config {
	return Config{
		Timeout:       DefaultTimeout,
		CycleInterval: DefaultCycleInterval,
		Clock:         RealClock{},
	}
}

// Machine is the tracking state machine. It is not safe for concurrent
// use; the caller serializes detector results and frame ticks.
type Machine struct {
	cfg    Config
	clock  Clock
	logger *log.Logger

	clips Clips
	rig   Rig
	feed  Feed

	state      State
	lastSignal time.Time
	fallback   bool

	cycling    bool
	cycleIndex int
	lastSwitch time.Time

	onTransition func(Transition)
}

// New creates a disabled machine. rig may be nil while no skeleton is loaded.
func New(cfg Config, clips Clips, rig Rig) *Machine {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = DefaultCycleInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Machine{cfg: cfg, clock: cfg.Clock, logger: logger, clips: clips, rig: rig}
}

// SetFeed attaches the pipeline started by Enable and stopped by Disable.
func (m *Machine) SetFeed(f Feed) {
	m.feed = f
}

// SetRig replaces the rig handle.
func (m *Machine) SetRig(r Rig) {
	m.rig = r
}

// OnTransition registers a callback for state changes. It runs
// synchronously inside the caller's critical section.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.onTransition = fn
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// IsEnabled reports whether tracking is on.
func (m *Machine) IsEnabled() bool { return m.state != StateDisabled }

// IsLive reports whether a pose was seen and has not yet timed out.
func (m *Machine) IsLive() bool { return m.state == StateLive }

// IsFallbackActive reports whether the machine gave up on the signal and
// handed the rig to clips or idle rotation.
func (m *Machine) IsFallbackActive() bool { return m.fallback }

// LastSignal returns when a pose was last seen.
func (m *Machine) LastSignal() time.Time { return m.lastSignal }

// ShouldDrive reports whether tracking results may write to the rig.
// Clip playback and tracking never drive the rig together.
func (m *Machine) ShouldDrive() bool {
	switch m.state {
	case StateLive, StateCooldown:
		return true
	case StateWaitingForSignal:
		return !m.fallback && !m.clips.IsAnyPlaying()
	}
	return false
}

// IdleRotationActive reports whether the rig should slowly turn in place.
func (m *Machine) IdleRotationActive() bool {
	if m.state != StateDisabled && m.state != StateWaitingForSignal {
		return false
	}
	return !m.clips.IsAnyPlaying()
}

// Enable starts the feed and waits for a pose. It is a no-op when
// tracking is already on. On feed failure the machine stays disabled.
func (m *Machine) Enable() error {
	if m.state != StateDisabled {
		return nil
	}
	if m.feed != nil {
		if err := m.feed.Start(); err != nil {
			return fmt.Errorf("start tracking feed: %w", err)
		}
	}
	m.fallback = false
	m.stopCycle()
	if m.rig != nil {
		m.rig.FaceViewer()
	}
	m.transition(StateWaitingForSignal)
	return nil
}

// Disable stops the feed, stops every clip and returns the rig to rest.
// Loaded clips are kept.
func (m *Machine) Disable() {
	if m.state == StateDisabled {
		return
	}
	m.stopCycle()
	m.fallback = false
	m.lastSignal = time.Time{}
	m.clips.StopAll()
	if m.rig != nil {
		m.rig.ResetPose()
	}
	if m.feed != nil {
		m.feed.Stop()
	}
	m.transition(StateDisabled)
}

// OnDetectorResult advances the machine with one detector result and
// reports whether that result should drive the rig. Results arriving
// while disabled are ignored.
func (m *Machine) OnDetectorResult(res *detector.Result) bool {
	if m.state == StateDisabled {
		return false
	}
	now := m.clock.Now()

	if res.HasPose() {
		m.lastSignal = now
		if m.state != StateLive {
			m.enterLive()
		}
		return true
	}

	if m.state == StateLive {
		m.transition(StateCooldown)
	}
	m.checkTimeout(now)
	return m.ShouldDrive()
}

// Tick checks the timeout and advances the fallback clip cycle. Call it
// once per rendered frame.
func (m *Machine) Tick() {
	if m.state == StateDisabled {
		return
	}
	now := m.clock.Now()
	m.checkTimeout(now)

	if !m.cycling || now.Sub(m.lastSwitch) < m.cfg.CycleInterval {
		return
	}
	m.lastSwitch = now
	n := m.clips.LoadedClipCount()
	if n < 2 {
		return
	}
	next := (m.cycleIndex + 1) % n
	if err := m.clips.Play(next); err != nil {
		m.logger.Printf("tracking: clip cycle stopped: %v", err)
		m.stopCycle()
		return
	}
	m.cycleIndex = next
}

// StopCycle ends the fallback clip rotation, e.g. when the user picks a
// clip by hand.
func (m *Machine) StopCycle() {
	m.stopCycle()
}

func (m *Machine) stopCycle() {
	m.cycling = false
	m.cycleIndex = 0
}

func (m *Machine) checkTimeout(now time.Time) {
	if m.state != StateCooldown || now.Sub(m.lastSignal) <= m.cfg.Timeout {
		return
	}
	m.enterFallback(now)
}

func (m *Machine) enterLive() {
	m.fallback = false
	m.stopCycle()
	// Fading clips would keep writing the rig under tracking.
	m.clips.StopAll()
	if m.rig != nil {
		m.rig.FaceViewer()
	}
	m.transition(StateLive)
}

func (m *Machine) enterFallback(now time.Time) {
	m.fallback = true
	m.logger.Printf("tracking: no pose for %v, falling back", m.cfg.Timeout)

	if m.clips.LoadedClipCount() > 0 {
		if err := m.clips.Play(0); err != nil {
			m.logger.Printf("tracking: fallback clip: %v", err)
		} else {
			m.cycling = true
			m.cycleIndex = 0
			m.lastSwitch = now
		}
	}
	m.transition(StateWaitingForSignal)
}

func (m *Machine) transition(to State) {
	from := m.state
	m.state = to
	if from == to {
		return
	}
	m.logger.Printf("tracking: %s -> %s", from, to)
	if m.onTransition != nil {
		m.onTransition(Transition{From: from, To: to, Fallback: m.fallback, At: m.clock.Now()})
	}
}
