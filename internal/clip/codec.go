package clip

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/kathakali/internal/rig"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// The JSON form stores quaternions as [x, y, z, w].
type wireClip struct {
	Name     string      `json:"name"`
	Duration float64     `json:"duration"`
	Tracks   []wireTrack `json:"tracks"`
}

type wireTrack struct {
	Joint     string       `json:"joint"`
	Times     []float64    `json:"times"`
	Rotations [][4]float64 `json:"rotations,omitempty"`
	Positions [][3]float64 `json:"positions,omitempty"`
}

// Decode parses and validates a clip. A zero duration is taken from the
// last keyframe.
func Decode(data []byte) (*Clip, error) {
	var w wireClip
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode clip: %w", err)
	}

	c := &Clip{Name: w.Name, Duration: w.Duration}
	for _, wt := range w.Tracks {
		t := Track{Joint: rig.JointName(wt.Joint), Times: wt.Times}
		for _, r := range wt.Rotations {
			t.Rotations = append(t.Rotations, rig.Normalize(quat.Number{Imag: r[0], Jmag: r[1], Kmag: r[2], Real: r[3]}))
		}
		for _, p := range wt.Positions {
			t.Positions = append(t.Positions, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
		}
		if n := len(t.Times); n > 0 && t.Times[n-1] > c.Duration && w.Duration == 0 {
			c.Duration = t.Times[n-1]
		}
		c.Tracks = append(c.Tracks, t)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode renders c in the form Decode reads.
func Encode(c *Clip) ([]byte, error) {
	w := wireClip{Name: c.Name, Duration: c.Duration}
	for _, t := range c.Tracks {
		wt := wireTrack{Joint: string(t.Joint), Times: t.Times}
		for _, q := range t.Rotations {
			wt.Rotations = append(wt.Rotations, [4]float64{q.Imag, q.Jmag, q.Kmag, q.Real})
		}
		for _, p := range t.Positions {
			wt.Positions = append(wt.Positions, [3]float64{p.X, p.Y, p.Z})
		}
		w.Tracks = append(w.Tracks, wt)
	}
	return json.Marshal(w)
}
