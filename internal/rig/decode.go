package rig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodeSpec is the wire description of a skeleton node as published by
// the renderer after it loads an asset.
type NodeSpec struct {
	Name     string      `json:"name"`
	Type     string      `json:"type,omitempty"`
	Rotation *[4]float64 `json:"rotation,omitempty"`
	Position *[3]float64 `json:"position,omitempty"`
	Children []NodeSpec  `json:"children,omitempty"`
}

// SkeletonSpec is the wire description of a loaded skeleton.
type SkeletonSpec struct {
	ID          string               `json:"id"`
	Root        *NodeSpec            `json:"root"`
	Bones       []string             `json:"bones,omitempty"`
	Humanoid    map[JointName]string `json:"humanoid,omitempty"`
	Blendshapes bool                 `json:"blendshapes,omitempty"`
}

// Decode reads a SkeletonSpec from r and builds the skeleton.
func Decode(r io.Reader) (*Skeleton, error) {
	var spec SkeletonSpec
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode skeleton: %w", err)
	}
	return Build(spec)
}

// Build turns a spec into a skeleton. Bone names that do not exist in the
// tree become detached bones; humanoid slots must name tree nodes or bones.
func Build(spec SkeletonSpec) (*Skeleton, error) {
	if spec.ID == "" {
		return nil, errors.New("skeleton id is required")
	}
	if spec.Root == nil {
		return nil, errors.New("skeleton root is required")
	}

	byName := make(map[string]*Node)
	root := buildNode(*spec.Root, byName)

	s := &Skeleton{ID: spec.ID, Root: root}
	for _, name := range spec.Bones {
		n, ok := byName[name]
		if !ok {
			n = &Node{Name: name, Kind: KindBone, Rotation: Identity}
			byName[name] = n
		}
		s.Bones = append(s.Bones, n)
	}

	if len(spec.Humanoid) > 0 {
		s.Humanoid = make(map[JointName]*Node, len(spec.Humanoid))
		for j, name := range spec.Humanoid {
			if !j.Valid() {
				return nil, fmt.Errorf("humanoid slot %q is not a known joint", j)
			}
			n, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("humanoid slot %s names missing node %q", j, name)
			}
			s.Humanoid[j] = n
		}
	}
	if spec.Blendshapes {
		s.Expressions = NewExpressionSet()
	}

	s.CaptureRest()
	return s, nil
}

// buildNode converts a spec subtree. The first node with a given name
// wins in byName.
func buildNode(spec NodeSpec, byName map[string]*Node) *Node {
	n := &Node{Name: spec.Name, Rotation: Identity}
	if spec.Type == "Bone" {
		n.Kind = KindBone
	}
	if r := spec.Rotation; r != nil {
		n.Rotation = Normalize(quat.Number{Imag: r[0], Jmag: r[1], Kmag: r[2], Real: r[3]})
	}
	if p := spec.Position; p != nil {
		n.Position = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	if _, ok := byName[n.Name]; !ok {
		byName[n.Name] = n
	}
	for _, c := range spec.Children {
		n.Children = append(n.Children, buildNode(c, byName))
	}
	return n
}
