// Package session owns the live animation state and serializes its two
// producers: detector results arriving on the capture goroutine and
// frame ticks arriving from the render loop.
package session

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ayusman/kathakali/internal/blend"
	"github.com/ayusman/kathakali/internal/clip"
	"github.com/ayusman/kathakali/internal/detector"
	"github.com/ayusman/kathakali/internal/retarget"
	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/solver"
	"github.com/ayusman/kathakali/internal/tracking"
)

// ErrTrackingActive is returned when a clip is requested while live
// tracking owns the rig.
var ErrTrackingActive = errors.New("live tracking is driving the rig")

// DefaultIdleYawSpeed is the idle turn rate in radians per second.
const DefaultIdleYawSpeed = 0.5

// Event names published through OnEvent.
const (
	EventTrackingLive     = "tracking.live"
	EventTrackingCooldown = "tracking.cooldown"
	EventTrackingFallback = "tracking.fallback"
	EventTrackingWaiting  = "tracking.waiting"
	EventTrackingDisabled = "tracking.disabled"
	EventClipPlay         = "clip.play"
	EventClipStop         = "clip.stop"
)

// Event is a notable change in the session.
type Event struct {
	Name  string
	State tracking.State
	Clip  string
	At    time.Time
}

// Renderer receives one frame per tick. It is called outside the
// session lock.
type Renderer interface {
	Render(f Frame)
}

// PoseFilter is implemented by renderers that draw only some frames.
// Frames it rejects are rendered without a snapshot.
type PoseFilter interface {
	WantsPose(seq uint64) bool
}

// Frame is what a renderer draws.
type Frame struct {
	Seq      uint64
	Delta    time.Duration
	State    string
	Snapshot *rig.Snapshot
}

// Config assembles the session's parts.
type Config struct {
	Mapper       retarget.Config
	Expressions  retarget.ExpressionConfig
	Player       clip.Config
	Tracking     tracking.Config
	Aliases      rig.AliasTable
	IdleYawSpeed float64
	Logger       *log.Logger
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Mapper:       retarget.DefaultConfig(),
		Expressions:  retarget.DefaultExpressionConfig(),
		Player:       clip.DefaultConfig(),
		Tracking:     tracking.DefaultConfig(),
		Aliases:      rig.DefaultAliasTable(),
		IdleYawSpeed: DefaultIdleYawSpeed,
	}
}

// State is the mutable animation state: the loaded skeleton, its joint
// resolver, the clip player and the tracking machine.
type State struct {
	Skeleton *rig.Skeleton
	Resolver *rig.CachedResolver
	Player   *clip.Player
	Tracker  *tracking.Machine
}

// Status is a read-only view for the API and tray.
type Status struct {
	State         string          `json:"state"`
	Enabled       bool            `json:"enabled"`
	Live          bool            `json:"live"`
	Fallback      bool            `json:"fallback"`
	Playing       bool            `json:"playing"`
	CurrentClip   int             `json:"currentClip"`
	ClipCount     int             `json:"clipCount"`
	SkeletonID    string          `json:"skeletonId,omitempty"`
	MissingJoints []rig.JointName `json:"missingJoints,omitempty"`
	LastSignal    *time.Time      `json:"lastSignal,omitempty"`
}

// Session is the animation session shared by the detector and render
// goroutines.
type Session struct {
	mu     sync.Mutex
	cfg    Config
	state  State
	logger *log.Logger

	solver   solver.Solver
	mapper   *retarget.Mapper
	blender  *blend.Blender
	renderer Renderer
	onEvent  func(Event)

	seq uint64
}

// New creates a session with no skeleton and an empty clip library.
func New(cfg Config, sv solver.Solver) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Tracking.Logger == nil {
		cfg.Tracking.Logger = logger
	}
	if cfg.Tracking.Clock == nil {
		cfg.Tracking.Clock = tracking.RealClock{}
	}
	if cfg.Aliases == nil {
		cfg.Aliases = rig.DefaultAliasTable()
	}
	if sv == nil {
		sv = solver.NewEmbedded()
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		solver:  sv,
		mapper:  retarget.NewMapper(cfg.Mapper),
		blender: blend.New(logger),
	}
	s.state.Player = clip.NewPlayer(cfg.Player, logger)
	s.state.Tracker = tracking.New(cfg.Tracking, s.state.Player, skeletonControl{s})
	s.state.Tracker.OnTransition(s.handleTransition)
	return s
}

// skeletonControl lets the tracker reset whichever skeleton is loaded.
type skeletonControl struct{ s *Session }

func (c skeletonControl) FaceViewer() {
	if sk := c.s.state.Skeleton; sk != nil {
		sk.FaceViewer()
	}
}

func (c skeletonControl) ResetPose() {
	if sk := c.s.state.Skeleton; sk != nil {
		sk.ResetPose()
	}
}

// SetRenderer sets the frame consumer.
func (s *Session) SetRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

// SetFeed sets the pipeline started and stopped with tracking.
func (s *Session) SetFeed(f tracking.Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tracker.SetFeed(f)
}

// OnEvent registers a callback for session events. It is invoked with
// the session lock held and must not call back into the session.
func (s *Session) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

func (s *Session) emit(name, clipName string, at time.Time) {
	if s.onEvent == nil {
		return
	}
	s.onEvent(Event{Name: name, State: s.state.Tracker.State(), Clip: clipName, At: at})
}

func (s *Session) handleTransition(tr tracking.Transition) {
	switch {
	case tr.To == tracking.StateLive:
		s.emit(EventTrackingLive, "", tr.At)
	case tr.To == tracking.StateCooldown:
		s.emit(EventTrackingCooldown, "", tr.At)
	case tr.To == tracking.StateWaitingForSignal && tr.Fallback:
		s.emit(EventTrackingFallback, "", tr.At)
	case tr.To == tracking.StateWaitingForSignal:
		s.emit(EventTrackingWaiting, "", tr.At)
	case tr.To == tracking.StateDisabled:
		s.emit(EventTrackingDisabled, "", tr.At)
	}
}

// SetSkeleton binds a newly loaded skeleton, or unbinds with nil.
// Joint lookups are cached per skeleton.
func (s *Session) SetSkeleton(sk *rig.Skeleton) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sk == nil {
		s.state.Skeleton = nil
		s.state.Resolver = nil
		s.state.Player.Bind(nil)
		return
	}

	res := rig.NewCachedResolver(rig.ResolverFor(sk, s.cfg.Aliases), sk.ID, s.logger)
	s.state.Skeleton = sk
	s.state.Resolver = res
	s.state.Player.Bind(res)
	if s.state.Tracker.IsEnabled() {
		sk.FaceViewer()
	}
	s.logger.Printf("session: skeleton %s bound", sk.ID)
}

// SetClips replaces the clip library.
func (s *Session) SetClips(clips []*clip.Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.SetClips(clips)
	s.state.Tracker.StopCycle()
}

// UseMapper swaps the retarget configuration.
func (s *Session) UseMapper(cfg retarget.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Mapper = cfg
	s.mapper = retarget.NewMapper(cfg)
}

// Enable turns tracking on.
func (s *Session) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Tracker.Enable()
}

// Disable turns tracking off and returns the rig to rest.
func (s *Session) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tracker.Disable()
}

// OnDetectorResult feeds one detector result through the tracker and,
// when tracking owns the rig, through solver, mapper and blender.
func (s *Session) OnDetectorResult(res *detector.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.state.Tracker
	if !t.IsEnabled() {
		return
	}
	if !t.OnDetectorResult(res) {
		return
	}
	if s.state.Skeleton == nil {
		return
	}

	solved, err := s.solver.Solve(res)
	if err != nil {
		s.logger.Printf("session: %v", err)
		return
	}
	s.blender.Apply(s.state.Resolver, s.mapper.Map(solved))
	if solved.Face != nil && s.state.Skeleton.Expressions != nil {
		retarget.ApplyExpressions(solved.Face, s.state.Skeleton.Expressions, s.cfg.Expressions)
	}
}

// Tick advances one rendered frame: clip playback, tracking timers and
// idle rotation, then hands the frame to the renderer.
func (s *Session) Tick(delta time.Duration) {
	s.mu.Lock()
	s.state.Player.Advance(delta)
	s.state.Tracker.Tick()

	sk := s.state.Skeleton
	if sk != nil && s.state.Tracker.IdleRotationActive() {
		sk.Turn(s.cfg.IdleYawSpeed * delta.Seconds())
	}

	s.seq++
	frame := Frame{Seq: s.seq, Delta: delta, State: s.state.Tracker.State().String()}
	r := s.renderer
	if sk != nil && wantsPose(r, s.seq) {
		snap := sk.Snapshot()
		frame.Snapshot = &snap
	}
	s.mu.Unlock()

	if r != nil {
		r.Render(frame)
	}
}

func wantsPose(r Renderer, seq uint64) bool {
	if r == nil {
		return false
	}
	if f, ok := r.(PoseFilter); ok {
		return f.WantsPose(seq)
	}
	return true
}

// PlayClip plays clip index by hand. It is refused while tracking is
// live or cooling down.
func (s *Session) PlayClip(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Tracker.State() {
	case tracking.StateLive, tracking.StateCooldown:
		s.logger.Printf("session: clip %d refused, %v", index, ErrTrackingActive)
		return ErrTrackingActive
	}

	if err := s.state.Player.Play(index); err != nil {
		return err
	}
	s.state.Tracker.StopCycle()
	s.emit(EventClipPlay, s.state.Player.Active().Clip().Name, s.cfg.Tracking.Clock.Now())
	return nil
}

// NextClip plays the clip after the current one, wrapping around.
func (s *Session) NextClip() error {
	s.mu.Lock()
	n := s.state.Player.LoadedClipCount()
	cur, _ := s.state.Player.Current()
	s.mu.Unlock()

	if n == 0 {
		return clip.ErrInvalidIndex
	}
	return s.PlayClip((cur + 1) % n)
}

// StopClip stops manual playback. The expedited stop uses a short fade
// and also restores the model's root transform.
func (s *Session) StopClip(expedited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Tracker.StopCycle()
	if !s.state.Player.IsAnyPlaying() {
		return
	}
	name := s.state.Player.Active().Clip().Name
	if expedited {
		s.state.Player.StopExpedited()
		if sk := s.state.Skeleton; sk != nil {
			sk.RestoreRoot()
		}
	} else {
		s.state.Player.Stop()
	}
	s.emit(EventClipStop, name, s.cfg.Tracking.Clock.Now())
}

// Clips returns the loaded library.
func (s *Session) Clips() []*clip.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Player.Clips()
}

// Snapshot copies the current skeleton pose. ok is false when no
// skeleton is bound.
func (s *Session) Snapshot() (snap rig.Snapshot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Skeleton == nil {
		return rig.Snapshot{}, false
	}
	return s.state.Skeleton.Snapshot(), true
}

// Status reports the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.state.Tracker
	st := Status{
		State:       t.State().String(),
		Enabled:     t.IsEnabled(),
		Live:        t.IsLive(),
		Fallback:    t.IsFallbackActive(),
		Playing:     s.state.Player.IsAnyPlaying(),
		CurrentClip: -1,
		ClipCount:   s.state.Player.LoadedClipCount(),
	}
	if idx, ok := s.state.Player.Current(); ok {
		st.CurrentClip = idx
	}
	if sk := s.state.Skeleton; sk != nil {
		st.SkeletonID = sk.ID
		st.MissingJoints = s.state.Resolver.Missing()
	}
	if last := t.LastSignal(); !last.IsZero() {
		st.LastSignal = &last
	}
	return st
}

// Yaw returns the current model yaw, or NaN without a skeleton.
func (s *Session) Yaw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Skeleton == nil {
		return math.NaN()
	}
	return s.state.Skeleton.Yaw
}
