package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
)

// Node is one cell of the index. It owns its box, the indices of the mesh
// vertices inside the box (faces inclusive) and, unless it is a leaf, exactly
// eight children.
type Node struct {
	Box      geom.Box
	Depth    int
	Indices  []int
	Children []*Node

	leaf bool
}

// newNode keeps the candidates whose vertex lies inside box. The order of
// candidates is preserved, so a leaf's first index is the first inserted one.
func newNode(box geom.Box, depth int, verts []mathutil.Vec3, candidates []int) *Node {
	n := &Node{
		Box:   box,
		Depth: depth,
	}
	for _, idx := range candidates {
		if box.Contains(verts[idx]) {
			n.Indices = append(n.Indices, idx)
		}
	}
	return n
}

// octantOf returns the child slot of p for a node centered at c. Points on a
// midplane go to the upper side, so every vertex lands in exactly one child.
func octantOf(p, c mathutil.Vec3) int {
	i := 0
	switch {
	case p[0] >= c[0] && p[2] >= c[2]:
		i = 2
	case p[0] >= c[0]:
		i = 1
	case p[2] >= c[2]:
		i = 3
	}
	if p[1] >= c[1] {
		i += 4
	}
	return i
}

// IsLeaf reports whether subdivision stopped at this node.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// builder carries the build context down the recursion.
type builder struct {
	verts         []mathutil.Vec3
	maxBuildDepth int
	failOnLimit   bool
	truncated     int
}

// subdivide splits the node into its eight octants until every leaf holds at
// most one index or the build depth cap is reached.
func (n *Node) subdivide(b *builder) error {
	if len(n.Indices) <= 1 {
		n.leaf = true
		return nil
	}

	if n.Depth >= b.maxBuildDepth {
		if b.failOnLimit {
			return errors.New("degenerate subdivision: depth limit exceeded").
				WithType(ErrTypeDepthLimit).
				WithTag("depth", n.Depth).
				WithTag("vertices", len(n.Indices)).
				WithTag("first_vertex", b.verts[n.Indices[0]])
		}
		n.leaf = true
		b.truncated++
		return nil
	}

	center := n.Box.Center()
	var parts [8][]int
	for _, idx := range n.Indices {
		o := octantOf(b.verts[idx], center)
		parts[o] = append(parts[o], idx)
	}

	octants := n.Box.Octants()
	n.Children = make([]*Node, len(octants))
	for i, box := range octants {
		n.Children[i] = &Node{
			Box:     box,
			Depth:   n.Depth + 1,
			Indices: parts[i],
		}
	}

	for _, child := range n.Children {
		if err := child.subdivide(b); err != nil {
			return err
		}
	}
	return nil
}

// intersects descends into every child whose box the ray strikes. Children
// are visited in octant order and a later hit replaces an earlier one, so the
// last struck leaf in that order wins.
func (n *Node) intersects(verts []mathutil.Vec3, r geom.Ray, t0, t1 float64) geom.MaybePoint {
	// Empty nodes never register as struck.
	if len(n.Indices) == 0 || !n.Box.Intersect(r, t0, t1) {
		return geom.None()
	}

	if n.leaf {
		return geom.Some(verts[n.Indices[0]])
	}

	var hit geom.MaybePoint
	for _, child := range n.Children {
		if h := child.intersects(verts, r, t0, t1); h.IsPresent() {
			hit = h
		}
	}
	return hit
}

// collectLeaves appends every struck non-empty leaf in octant order.
func (n *Node) collectLeaves(r geom.Ray, t0, t1 float64, out []*Node) []*Node {
	if len(n.Indices) == 0 || !n.Box.Intersect(r, t0, t1) {
		return out
	}
	if n.leaf {
		return append(out, n)
	}
	for _, child := range n.Children {
		out = child.collectLeaves(r, t0, t1, out)
	}
	return out
}

// walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn)
	}
}
