package clip

import (
	"math"

	"github.com/ayusman/kathakali/internal/rig"
)

// State is the lifecycle of one Action.
type State int

const (
	StateStopped State = iota
	StateFadingIn
	StatePlaying
	StateFadingOut
)

func (s State) String() string {
	switch s {
	case StateFadingIn:
		return "fading_in"
	case StatePlaying:
		return "playing"
	case StateFadingOut:
		return "fading_out"
	}
	return "stopped"
}

// LoopMode controls what happens at the end of a clip.
type LoopMode int

const (
	LoopRepeat LoopMode = iota
	LoopOnce
)

// Action is one playback of a clip: a play head and a blend weight.
type Action struct {
	clip  *Clip
	loop  LoopMode
	state State

	time   float64
	weight float64

	fade      float64
	faded     float64
	fadeStart float64
}

func newAction(c *Clip, loop LoopMode) *Action {
	return &Action{clip: c, loop: loop}
}

// Clip returns the clip being played.
func (a *Action) Clip() *Clip { return a.clip }

// State returns the current lifecycle state.
func (a *Action) State() State { return a.state }

// Time returns the play head in seconds.
func (a *Action) Time() float64 { return a.time }

// Weight returns the blend weight in [0, 1].
func (a *Action) Weight() float64 { return a.weight }

// fadeIn restarts the action from the beginning and ramps its weight up
// over d seconds.
func (a *Action) fadeIn(d float64) {
	a.time = 0
	a.faded = 0
	a.fade = d
	if d <= 0 {
		a.state, a.weight = StatePlaying, 1
		return
	}
	a.state, a.weight = StateFadingIn, 0
}

// fadeOut ramps the weight down to zero over d seconds.
func (a *Action) fadeOut(d float64) {
	if a.state == StateStopped {
		return
	}
	if d <= 0 {
		a.stop()
		return
	}
	a.state = StateFadingOut
	a.fade, a.faded, a.fadeStart = d, 0, a.weight
}

func (a *Action) stop() {
	a.state, a.weight = StateStopped, 0
}

// advance moves the play head and the fade by dt seconds.
func (a *Action) advance(dt float64) {
	if a.state == StateStopped || dt <= 0 {
		return
	}

	a.time += dt
	if d := a.clip.Duration; a.time >= d {
		if a.loop == LoopRepeat {
			a.time = math.Mod(a.time, d)
		} else {
			a.time = d
			a.stop()
			return
		}
	}

	switch a.state {
	case StateFadingIn:
		a.faded += dt
		if a.faded >= a.fade {
			a.state, a.weight = StatePlaying, 1
		} else {
			a.weight = a.faded / a.fade
		}
	case StateFadingOut:
		a.faded += dt
		if a.faded >= a.fade {
			a.stop()
		} else {
			a.weight = a.fadeStart * (1 - a.faded/a.fade)
		}
	}
}

// apply blends the sampled pose into the joints res resolves, weighted by
// the action's current weight.
func (a *Action) apply(res rig.Resolver) {
	if a.weight <= 0 {
		return
	}
	for i := range a.clip.Tracks {
		t := &a.clip.Tracks[i]
		node, ok := res.ResolveJoint(t.Joint)
		if !ok {
			continue
		}
		if q, ok := t.Rotation(a.time); ok {
			node.Rotation = rig.Slerp(node.Rotation, q, a.weight)
		}
		if p, ok := t.Position(a.time); ok {
			node.Position = rig.LerpVec(node.Position, p, a.weight)
		}
	}
}
