package capture

import "time"

// Frame rate defaults.
const (
	DefaultIdleFPS   = 5
	DefaultActiveFPS = 15
	DefaultIdleAfter = 2 * time.Second
)

// RateConfig sets the idle and active detection rates.
type RateConfig struct {
	IdleFPS   int
	ActiveFPS int

	// IdleAfter is how long without motion before dropping to IdleFPS.
	IdleAfter time.Duration
}

// DefaultRateConfig returns 5 fps idle, 15 fps active and a 2 s hold.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		IdleFPS:   DefaultIdleFPS,
		ActiveFPS: DefaultActiveFPS,
		IdleAfter: DefaultIdleAfter,
	}
}

// RateGovernor picks the detection frame rate from motion. A person
// standing still still has a pose, so frames keep flowing at the idle
// rate; motion raises the rate until it has been quiet for IdleAfter.
type RateGovernor struct {
	cfg        RateConfig
	active     bool
	lastMotion time.Time
}

// NewRateGovernor starts in idle mode.
func NewRateGovernor(cfg RateConfig) *RateGovernor {
	def := DefaultRateConfig()
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	return &RateGovernor{cfg: cfg}
}

// Observe records one motion sample and returns the rate to use next.
// changed is true when the mode switched.
func (g *RateGovernor) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active = true
			changed = true
		}
	case g.active && now.Sub(g.lastMotion) > g.cfg.IdleAfter:
		g.active = false
		changed = true
	}
	return g.FPS(), changed
}

// Active reports whether the governor is in the fast mode.
func (g *RateGovernor) Active() bool {
	return g.active
}

// FPS returns the current rate.
func (g *RateGovernor) FPS() int {
	if g.active {
		return g.cfg.ActiveFPS
	}
	return g.cfg.IdleFPS
}

// Interval returns the frame period at the current rate.
func (g *RateGovernor) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}

// Reset returns to idle.
func (g *RateGovernor) Reset() {
	g.active = false
	g.lastMotion = time.Time{}
}
