package rig

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// FacingYaw turns the model to face the viewer.
const FacingYaw = math.Pi

// NodeKind distinguishes skinning bones from plain transform nodes.
type NodeKind int

const (
	KindTransform NodeKind = iota
	KindBone
)

// Node is one transform in the skeleton tree. Rotation and Position are
// local to the parent and are mutated in place by the blender and the
// clip player.
type Node struct {
	Name     string
	Kind     NodeKind
	Rotation quat.Number
	Position r3.Vec
	Children []*Node

	restRotation quat.Number
	restPosition r3.Vec
}

// Skeleton is a loaded avatar rig.
type Skeleton struct {
	ID   string
	Root *Node

	// Bones is the flat bone list attached to skinned meshes. Entries
	// usually alias nodes of the tree but may be detached.
	Bones []*Node

	// Humanoid maps canonical joints to nodes when the asset carries a
	// standard humanoid descriptor. Nil for generic rigs.
	Humanoid map[JointName]*Node

	// Expressions is nil when the asset has no blendshapes.
	Expressions *ExpressionSet

	// Yaw is the coarse facing of the whole model around the vertical axis.
	Yaw float64

	restYaw float64
}

// NewSkeleton builds a skeleton around root and records the current
// transforms as the rest pose.
func NewSkeleton(id string, root *Node) *Skeleton {
	s := &Skeleton{ID: id, Root: root}
	s.CaptureRest()
	return s
}

// Walk visits every tree node depth-first in document order.
func (s *Skeleton) Walk(fn func(n *Node)) {
	if s == nil || s.Root == nil {
		return
	}
	var visit func(n *Node)
	visit = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(s.Root)
}

// nodes returns tree nodes followed by detached bones.
func (s *Skeleton) nodes() []*Node {
	var out []*Node
	seen := map[*Node]bool{}
	s.Walk(func(n *Node) {
		seen[n] = true
		out = append(out, n)
	})
	for _, b := range s.Bones {
		if b != nil && !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// CaptureRest records the current transforms as the rest pose.
func (s *Skeleton) CaptureRest() {
	for _, n := range s.nodes() {
		n.restRotation = n.Rotation
		n.restPosition = n.Position
	}
	s.restYaw = s.Yaw
}

// ResetPose returns every node, the yaw and any expressions to rest.
func (s *Skeleton) ResetPose() {
	for _, n := range s.nodes() {
		n.Rotation = n.restRotation
		n.Position = n.restPosition
	}
	s.Yaw = s.restYaw
	if s.Expressions != nil {
		s.Expressions.Reset()
	}
}

// RestoreRoot puts the root node and yaw back to their rest transform
// without touching the rest of the pose.
func (s *Skeleton) RestoreRoot() {
	if s.Root != nil {
		s.Root.Rotation = s.Root.restRotation
		s.Root.Position = s.Root.restPosition
	}
	s.Yaw = s.restYaw
}

// FaceViewer resets the coarse yaw so the model faces the camera.
func (s *Skeleton) FaceViewer() {
	s.Yaw = FacingYaw
}

// Turn adds delta radians to the yaw, wrapped to [0, 2π).
func (s *Skeleton) Turn(delta float64) {
	s.Yaw = math.Mod(s.Yaw+delta, 2*math.Pi)
	if s.Yaw < 0 {
		s.Yaw += 2 * math.Pi
	}
}

// NodeTransform is the wire form of a node's local transform.
// Rotation is x, y, z, w.
type NodeTransform struct {
	Name     string     `json:"name"`
	Rotation [4]float64 `json:"rotation"`
	Position [3]float64 `json:"position"`
}

// Snapshot is a copy of the skeleton's animated state for a renderer.
type Snapshot struct {
	SkeletonID  string             `json:"skeletonId"`
	Yaw         float64            `json:"yaw"`
	Nodes       []NodeTransform    `json:"nodes"`
	Expressions map[string]float64 `json:"expressions,omitempty"`
	LookAt      *Euler             `json:"lookAt,omitempty"`
}

// Snapshot copies the current transforms.
func (s *Skeleton) Snapshot() Snapshot {
	snap := Snapshot{SkeletonID: s.ID, Yaw: s.Yaw}
	for _, n := range s.nodes() {
		snap.Nodes = append(snap.Nodes, NodeTransform{
			Name:     n.Name,
			Rotation: [4]float64{n.Rotation.Imag, n.Rotation.Jmag, n.Rotation.Kmag, n.Rotation.Real},
			Position: [3]float64{n.Position.X, n.Position.Y, n.Position.Z},
		})
	}
	if s.Expressions != nil {
		snap.Expressions = s.Expressions.Values()
		look := s.Expressions.LookAt
		snap.LookAt = &look
	}
	return snap
}
