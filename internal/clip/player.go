package clip

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/kathakali/internal/rig"
)

var (
	// ErrInvalidIndex is returned by Play for an index outside the library.
	ErrInvalidIndex = errors.New("clip index out of range")

	// ErrUnbound is returned by Play when no skeleton is bound.
	ErrUnbound = errors.New("no skeleton bound to the clip player")
)

// Config holds the player's fade timings.
type Config struct {
	FadeIn           time.Duration
	FadeOut          time.Duration
	ExpeditedFadeOut time.Duration
	Loop             LoopMode
}

// DefaultConfig returns half-second cross-fades and looping playback.
func DefaultConfig() Config {
	return Config{
		FadeIn:           500 * time.Millisecond,
		FadeOut:          500 * time.Millisecond,
		ExpeditedFadeOut: 100 * time.Millisecond,
		Loop:             LoopRepeat,
	}
}

// Player owns the clip library and at most one active action. Actions
// that were replaced keep fading out until their weight reaches zero.
//
// Player is not safe for concurrent use.
type Player struct {
	cfg    Config
	logger *log.Logger

	clips   []*Clip
	binding rig.Resolver

	active  *Action
	current int
	tails   []*Action
}

// NewPlayer creates an empty player. A nil logger uses log.Default().
func NewPlayer(cfg Config, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{cfg: cfg, logger: logger, current: -1}
}

// SetClips replaces the library. Playback stops because indices change.
func (p *Player) SetClips(clips []*Clip) {
	p.StopAll()
	p.clips = append([]*Clip(nil), clips...)
}

// Clips returns the library in index order.
func (p *Player) Clips() []*Clip {
	return append([]*Clip(nil), p.clips...)
}

// LoadedClipCount returns the size of the library.
func (p *Player) LoadedClipCount() int {
	return len(p.clips)
}

// Bind attaches the player to a skeleton. Binding nil stops playback.
func (p *Player) Bind(res rig.Resolver) {
	if res == nil {
		p.StopAll()
	}
	p.binding = res
}

// Play fades out whatever is playing and fades clip index in from its
// start. On error nothing changes.
func (p *Player) Play(index int) error {
	if index < 0 || index >= len(p.clips) {
		p.logger.Printf("clip: index %d out of range (%d loaded)", index, len(p.clips))
		return ErrInvalidIndex
	}
	if p.binding == nil {
		p.logger.Printf("clip: cannot play %q, no skeleton bound", p.clips[index].Name)
		return ErrUnbound
	}

	p.release(p.cfg.FadeOut)

	a := newAction(p.clips[index], p.cfg.Loop)
	a.fadeIn(p.cfg.FadeIn.Seconds())
	p.active = a
	p.current = index

	p.logger.Printf("clip: playing %d/%d %q", index+1, len(p.clips), a.clip.Name)
	return nil
}

// Stop fades the active action out.
func (p *Player) Stop() {
	p.release(p.cfg.FadeOut)
}

// StopExpedited fades the active action out quickly.
func (p *Player) StopExpedited() {
	p.release(p.cfg.ExpeditedFadeOut)
}

// StopAll halts every action immediately.
func (p *Player) StopAll() {
	if p.active != nil {
		p.active.stop()
		p.active = nil
	}
	for _, a := range p.tails {
		a.stop()
	}
	p.tails = nil
}

func (p *Player) release(fade time.Duration) {
	if p.active == nil {
		return
	}
	a := p.active
	p.active = nil
	a.fadeOut(fade.Seconds())
	if a.State() != StateStopped {
		p.tails = append(p.tails, a)
	}
}

// IsAnyPlaying reports whether an action is fading in or playing.
// Actions on their way out do not count.
func (p *Player) IsAnyPlaying() bool {
	return p.active != nil && p.active.State() != StateStopped
}

// Current returns the index of the active clip.
func (p *Player) Current() (int, bool) {
	if !p.IsAnyPlaying() {
		return -1, false
	}
	return p.current, true
}

// Active returns the active action, or nil.
func (p *Player) Active() *Action {
	return p.active
}

// Advance moves every action forward by dt and writes the blended pose
// into the bound skeleton. Fading tails are applied first so the active
// action has the last word.
func (p *Player) Advance(dt time.Duration) {
	if p.binding == nil {
		return
	}
	sec := dt.Seconds()

	kept := p.tails[:0]
	for _, a := range p.tails {
		a.advance(sec)
		if a.State() == StateStopped {
			continue
		}
		a.apply(p.binding)
		kept = append(kept, a)
	}
	for i := len(kept); i < len(p.tails); i++ {
		p.tails[i] = nil
	}
	p.tails = kept

	if p.active != nil {
		p.active.advance(sec)
		if p.active.State() == StateStopped {
			p.active = nil
			return
		}
		p.active.apply(p.binding)
	}
}
