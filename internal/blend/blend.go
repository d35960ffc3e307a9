// Package blend eases skeleton joints toward retarget targets.
package blend

import (
	"log"

	"github.com/ayusman/kathakali/internal/retarget"
	"github.com/ayusman/kathakali/internal/rig"
	"gonum.org/v1/gonum/spatial/r3"
)

// Blender applies Targets to a resolved skeleton. Each target moves its
// joint by the target's blend fraction of the remaining distance, so a
// stationary target is approached geometrically and never overshot.
type Blender struct {
	logger  *log.Logger
	warned  bool
	applied uint64
}

// New creates a blender. A nil logger uses log.Default().
func New(logger *log.Logger) *Blender {
	if logger == nil {
		logger = log.Default()
	}
	return &Blender{logger: logger}
}

// Apply writes targets onto the joints res resolves and returns how many
// joints were touched. Joints that do not resolve are skipped. A nil
// resolver means no skeleton is bound; the frame is dropped.
func (b *Blender) Apply(res rig.Resolver, targets retarget.Targets) int {
	if len(targets) == 0 {
		return 0
	}
	if res == nil {
		if !b.warned {
			b.logger.Println("blend: no skeleton bound, dropping tracking frames")
			b.warned = true
		}
		return 0
	}
	b.warned = false

	n := 0
	for name, t := range targets {
		node, ok := res.ResolveJoint(name)
		if !ok {
			continue
		}
		if t.Rotation != nil {
			Rotate(node, *t.Rotation)
		}
		if t.Position != nil {
			Translate(node, *t.Position)
		}
		n++
	}
	b.applied += uint64(n)
	return n
}

// Applied returns the total number of joint updates written.
func (b *Blender) Applied() uint64 {
	return b.applied
}

// Rotate slerps node toward the dampened target orientation.
func Rotate(node *rig.Node, t retarget.RotationTarget) {
	goal := t.Euler.Scale(t.Dampening).Quaternion()
	node.Rotation = rig.Slerp(node.Rotation, goal, clampBlend(t.Blend))
}

// Translate lerps node toward the dampened target position.
func Translate(node *rig.Node, t retarget.PositionTarget) {
	goal := r3.Scale(t.Dampening, t.Vec)
	node.Position = rig.LerpVec(node.Position, goal, clampBlend(t.Blend))
}

func clampBlend(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
