// Package clip holds pre-authored animation clips and plays them onto a
// rig with cross-fades.
package clip

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ayusman/kathakali/internal/rig"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Track is the keyframed motion of one canonical joint. Rotations and
// Positions are either empty or as long as Times.
type Track struct {
	Joint     rig.JointName
	Times     []float64
	Rotations []quat.Number
	Positions []r3.Vec
}

// Clip is an immutable named animation. Duration is in seconds.
type Clip struct {
	ID       string
	Name     string
	Duration float64
	Tracks   []Track
}

// Validate checks track shape and ordering.
func (c *Clip) Validate() error {
	if c.Name == "" {
		return errors.New("clip name is required")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("clip %q: duration must be positive", c.Name)
	}
	for i, t := range c.Tracks {
		if !t.Joint.Valid() {
			return fmt.Errorf("clip %q track %d: unknown joint %q", c.Name, i, t.Joint)
		}
		if len(t.Times) == 0 {
			return fmt.Errorf("clip %q track %s: no keyframes", c.Name, t.Joint)
		}
		if len(t.Rotations) == 0 && len(t.Positions) == 0 {
			return fmt.Errorf("clip %q track %s: no values", c.Name, t.Joint)
		}
		if len(t.Rotations) != 0 && len(t.Rotations) != len(t.Times) {
			return fmt.Errorf("clip %q track %s: %d rotations for %d keyframes", c.Name, t.Joint, len(t.Rotations), len(t.Times))
		}
		if len(t.Positions) != 0 && len(t.Positions) != len(t.Times) {
			return fmt.Errorf("clip %q track %s: %d positions for %d keyframes", c.Name, t.Joint, len(t.Positions), len(t.Times))
		}
		if !sort.Float64sAreSorted(t.Times) {
			return fmt.Errorf("clip %q track %s: keyframe times out of order", c.Name, t.Joint)
		}
	}
	return nil
}

// span finds the keyframes around at and the interpolation factor.
func (t *Track) span(at float64) (i, j int, alpha float64) {
	n := len(t.Times)
	idx := sort.Search(n, func(k int) bool { return t.Times[k] > at })
	switch {
	case idx == 0:
		return 0, 0, 0
	case idx >= n:
		return n - 1, n - 1, 0
	}
	prev, next := t.Times[idx-1], t.Times[idx]
	if next <= prev {
		return idx - 1, idx - 1, 0
	}
	return idx - 1, idx, (at - prev) / (next - prev)
}

// Rotation samples the track's orientation at time at.
func (t *Track) Rotation(at float64) (quat.Number, bool) {
	if len(t.Rotations) == 0 {
		return quat.Number{}, false
	}
	i, j, alpha := t.span(at)
	return rig.Slerp(t.Rotations[i], t.Rotations[j], alpha), true
}

// Position samples the track's translation at time at.
func (t *Track) Position(at float64) (r3.Vec, bool) {
	if len(t.Positions) == 0 {
		return r3.Vec{}, false
	}
	i, j, alpha := t.span(at)
	return rig.LerpVec(t.Positions[i], t.Positions[j], alpha), true
}
