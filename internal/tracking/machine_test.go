package tracking

import (
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/ayusman/kathakali/internal/detector"
	"github.com/google/go-cmp/cmp"
)

type fakeClips struct {
	count    int
	playing  bool
	played   []int
	stopAlls int
}

func (c *fakeClips) Play(i int) error {
	if i < 0 || i >= c.count {
		return errors.New("bad index")
	}
	c.playing = true
	c.played = append(c.played, i)
	return nil
}

func (c *fakeClips) StopAll() {
	c.playing = false
	c.stopAlls++
}

func (c *fakeClips) IsAnyPlaying() bool   { return c.playing }
func (c *fakeClips) LoadedClipCount() int { return c.count }

type fakeRig struct {
	faced  int
	resets int
}

func (r *fakeRig) FaceViewer() { r.faced++ }
func (r *fakeRig) ResetPose()  { r.resets++ }

type fakeFeed struct {
	err     error
	running bool
}

func (f *fakeFeed) Start() error {
	if f.err != nil {
		return f.err
	}
	f.running = true
	return nil
}

func (f *fakeFeed) Stop() { f.running = false }

func newMachine(clips int) (*Machine, *MockClock, *fakeClips, *fakeRig) {
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := &fakeClips{count: clips}
	r := &fakeRig{}
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.Logger = log.New(&bytes.Buffer{}, "", 0)
	return New(cfg, c, r), clock, c, r
}

func TestMachine_EnableDisable(t *testing.T) {
	m, _, clips, rig := newMachine(2)
	feed := &fakeFeed{}
	m.SetFeed(feed)

	if m.IsEnabled() {
		t.Fatal("machine should start disabled")
	}
	if m.OnDetectorResult(detector.FullBodyResult()) {
		t.Error("results while disabled must be dropped")
	}
	if m.State() != StateDisabled {
		t.Errorf("expected disabled, got %s", m.State())
	}

	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if m.State() != StateWaitingForSignal || !feed.running || rig.faced != 1 {
		t.Errorf("unexpected state after enable: %s feed=%v faced=%d", m.State(), feed.running, rig.faced)
	}

	m.Disable()
	if m.State() != StateDisabled || feed.running {
		t.Errorf("expected disabled with feed stopped, got %s feed=%v", m.State(), feed.running)
	}
	if clips.stopAlls != 1 || rig.resets != 1 {
		t.Errorf("expected clips stopped and pose reset, got stopAll=%d resets=%d", clips.stopAlls, rig.resets)
	}
}

func TestMachine_EnableFeedFailure(t *testing.T) {
	m, _, _, _ := newMachine(0)
	m.SetFeed(&fakeFeed{err: errors.New("no camera")})

	if err := m.Enable(); err == nil {
		t.Fatal("expected error")
	}
	if m.State() != StateDisabled {
		t.Errorf("expected to stay disabled, got %s", m.State())
	}
}

func TestMachine_GoesLive(t *testing.T) {
	m, _, clips, rig := newMachine(2)
	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	clips.playing = true

	if !m.OnDetectorResult(detector.FullBodyResult()) {
		t.Error("a pose should drive the rig")
	}
	if !m.IsLive() {
		t.Fatalf("expected live, got %s", m.State())
	}
	if clips.playing || clips.stopAlls != 1 {
		t.Error("expected clip playback halted on entering live")
	}
	if rig.faced != 2 {
		t.Errorf("expected yaw reset on entering live, got %d", rig.faced)
	}
}

func TestMachine_CooldownAndFallback(t *testing.T) {
	m, clock, clips, _ := newMachine(3)
	var seen []Transition
	m.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	m.OnDetectorResult(detector.FullBodyResult())

	// Losing the pose drops into cooldown but keeps driving.
	clock.Advance(100 * time.Millisecond)
	if !m.OnDetectorResult(detector.FaceOnlyResult()) {
		t.Error("cooldown should still drive face and hands")
	}
	if m.State() != StateCooldown {
		t.Fatalf("expected cooldown, got %s", m.State())
	}

	// Exactly at the timeout nothing happens yet.
	clock.Advance(1900 * time.Millisecond)
	m.OnDetectorResult(detector.EmptyResult())
	if m.State() != StateCooldown {
		t.Fatalf("expected cooldown at 2000ms, got %s", m.State())
	}

	clock.Advance(time.Millisecond)
	if m.OnDetectorResult(detector.EmptyResult()) {
		t.Error("fallback must not be driven by tracking")
	}
	if !m.IsFallbackActive() || m.State() != StateWaitingForSignal {
		t.Fatalf("expected fallback, got %s fallback=%v", m.State(), m.IsFallbackActive())
	}
	if !clips.IsAnyPlaying() {
		t.Error("expected a clip to be playing")
	}
	if diff := cmp.Diff([]int{0}, clips.played); diff != "" {
		t.Errorf("played mismatch (-want +got):\n%s", diff)
	}

	want := []State{StateWaitingForSignal, StateLive, StateCooldown, StateWaitingForSignal}
	var got []State
	for _, tr := range seen {
		got = append(got, tr.To)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transition mismatch (-want +got):\n%s", diff)
	}
	if !seen[len(seen)-1].Fallback {
		t.Error("expected the last transition flagged as fallback")
	}
}

func TestMachine_TickTimesOut(t *testing.T) {
	m, clock, _, _ := newMachine(1)
	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	m.OnDetectorResult(detector.FullBodyResult())
	m.OnDetectorResult(detector.EmptyResult())

	clock.Advance(2500 * time.Millisecond)
	m.Tick()
	if !m.IsFallbackActive() {
		t.Error("expected Tick to detect the timeout without new results")
	}
}

func TestMachine_ClipCycle(t *testing.T) {
	m, clock, clips, _ := newMachine(3)
	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	m.OnDetectorResult(detector.FullBodyResult())
	m.OnDetectorResult(detector.EmptyResult())
	clock.Advance(2001 * time.Millisecond)
	m.Tick()

	for i := 0; i < 4; i++ {
		clock.Advance(4 * time.Second)
		m.Tick()
		clock.Advance(time.Second)
		m.Tick()
	}
	if diff := cmp.Diff([]int{0, 1, 2, 0, 1}, clips.played); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}

	// A pose ends the cycle.
	m.OnDetectorResult(detector.FullBodyResult())
	clock.Advance(10 * time.Second)
	m.OnDetectorResult(detector.FullBodyResult())
	m.Tick()
	if len(clips.played) != 5 {
		t.Errorf("expected no more clips while live, got %v", clips.played)
	}
}

func TestMachine_SingleClipDoesNotCycle(t *testing.T) {
	m, clock, clips, _ := newMachine(1)
	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	m.OnDetectorResult(detector.FullBodyResult())
	m.OnDetectorResult(detector.EmptyResult())
	clock.Advance(3 * time.Second)
	m.Tick()
	clock.Advance(6 * time.Second)
	m.Tick()

	if diff := cmp.Diff([]int{0}, clips.played); diff != "" {
		t.Errorf("played mismatch (-want +got):\n%s", diff)
	}
}

func TestMachine_FallbackWithoutClips(t *testing.T) {
	m, clock, _, _ := newMachine(0)
	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	m.OnDetectorResult(detector.FullBodyResult())
	if m.IdleRotationActive() {
		t.Error("no idle rotation while live")
	}
	m.OnDetectorResult(detector.EmptyResult())
	clock.Advance(2001 * time.Millisecond)
	m.Tick()

	if !m.IsFallbackActive() || !m.IdleRotationActive() {
		t.Error("expected idle rotation fallback")
	}
}

func TestMachine_ShouldDrive(t *testing.T) {
	m, _, clips, _ := newMachine(1)
	if m.ShouldDrive() {
		t.Error("disabled must not drive")
	}
	if err := m.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !m.OnDetectorResult(detector.FaceOnlyResult()) {
		t.Error("face-only results drive the head while waiting with no clip playing")
	}

	clips.playing = true
	if m.OnDetectorResult(detector.FaceOnlyResult()) {
		t.Error("a playing clip owns the rig")
	}
}

func TestMachine_EnableIsIdempotent(t *testing.T) {
	m, _, _, rig := newMachine(0)
	var n int
	m.OnTransition(func(Transition) { n++ })
	for i := 0; i < 3; i++ {
		if err := m.Enable(); err != nil {
			t.Fatalf("enable: %v", err)
		}
	}
	if n != 1 || rig.faced != 1 {
		t.Errorf("expected a single transition, got %d", n)
	}
	m.Disable()
	m.Disable()
	if n != 2 || rig.resets != 1 {
		t.Errorf("expected a single disable, got transitions=%d resets=%d", n, rig.resets)
	}
}
