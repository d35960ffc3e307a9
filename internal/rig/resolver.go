package rig

import (
	"log"
	"sort"
	"strings"
)

// Resolver maps a canonical joint to a node of a loaded skeleton.
type Resolver interface {
	ResolveJoint(name JointName) (*Node, bool)
}

// HumanoidResolver resolves through the asset's humanoid slot map.
type HumanoidResolver struct {
	slots map[JointName]*Node
}

// NewHumanoidResolver returns a resolver over s.Humanoid.
func NewHumanoidResolver(s *Skeleton) *HumanoidResolver {
	return &HumanoidResolver{slots: s.Humanoid}
}

// ResolveJoint implements Resolver.
func (r *HumanoidResolver) ResolveJoint(name JointName) (*Node, bool) {
	n, ok := r.slots[name]
	return n, ok && n != nil
}

// AliasResolver searches a generic skeleton by name using an AliasTable.
//
// Matching runs in two passes. The first accepts nodes whose name equals
// an alias; the second accepts nodes whose name contains one. Within a
// pass aliases are tried in table order, nodes in depth-first document
// order followed by detached bones, and bone nodes win over transforms.
type AliasResolver struct {
	table AliasTable
	nodes []*Node
	names []string
}

// NewAliasResolver indexes s for alias lookups.
func NewAliasResolver(s *Skeleton, table AliasTable) *AliasResolver {
	r := &AliasResolver{table: table}
	for _, n := range s.nodes() {
		r.nodes = append(r.nodes, n)
		r.names = append(r.names, strings.ToLower(n.Name))
	}
	return r
}

// ResolveJoint implements Resolver.
func (r *AliasResolver) ResolveJoint(name JointName) (*Node, bool) {
	aliases := r.table[name]
	if len(aliases) == 0 {
		return nil, false
	}
	if n := r.search(aliases, func(node, alias string) bool { return node == alias }); n != nil {
		return n, true
	}
	if n := r.search(aliases, strings.Contains); n != nil {
		return n, true
	}
	return nil, false
}

func (r *AliasResolver) search(aliases []string, match func(node, alias string) bool) *Node {
	var fallback *Node
	for _, alias := range aliases {
		for i, n := range r.nodes {
			if !match(r.names[i], alias) {
				continue
			}
			if n.Kind == KindBone {
				return n
			}
			if fallback == nil {
				fallback = n
			}
		}
	}
	return fallback
}

// ResolverFor picks the humanoid resolver when s carries a slot map and
// the alias resolver otherwise.
func ResolverFor(s *Skeleton, table AliasTable) Resolver {
	if s.Humanoid != nil {
		return NewHumanoidResolver(s)
	}
	if table == nil {
		table = DefaultAliasTable()
	}
	return NewAliasResolver(s, table)
}

// CachedResolver memoizes lookups for one skeleton. A miss is logged the
// first time it happens and then answered from the cache.
type CachedResolver struct {
	inner      Resolver
	skeletonID string
	logger     *log.Logger

	found   map[JointName]*Node
	missing map[JointName]struct{}
}

// NewCachedResolver wraps inner. A nil logger uses log.Default().
func NewCachedResolver(inner Resolver, skeletonID string, logger *log.Logger) *CachedResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedResolver{
		inner:      inner,
		skeletonID: skeletonID,
		logger:     logger,
		found:      make(map[JointName]*Node),
		missing:    make(map[JointName]struct{}),
	}
}

// ResolveJoint implements Resolver.
func (c *CachedResolver) ResolveJoint(name JointName) (*Node, bool) {
	if n, ok := c.found[name]; ok {
		return n, true
	}
	if _, ok := c.missing[name]; ok {
		return nil, false
	}
	n, ok := c.inner.ResolveJoint(name)
	if !ok {
		c.missing[name] = struct{}{}
		c.logger.Printf("rig %s: no node for joint %s, skipping it", c.skeletonID, name)
		return nil, false
	}
	c.found[name] = n
	return n, true
}

// Missing returns the joints that failed to resolve so far, sorted.
func (c *CachedResolver) Missing() []JointName {
	out := make([]JointName, 0, len(c.missing))
	for j := range c.missing {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out
}
