// Package octree indexes the vertices of a static terrain mesh for ray picks:
// given a ray cast through a screen pixel it finds the mesh vertex, if any,
// that the ray lands on.
//
// A Tree is built once with Generate and queried many times. Queries do not
// mutate the tree, so Search may be called from several goroutines at once;
// Generate must not run concurrently with queries.
package octree

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
)

const (
	ErrTypeEmptyMesh    = "octree_empty_mesh"
	ErrTypeDepthLimit   = "octree_depth_limit"
	ErrTypeInvalidDepth = "octree_invalid_depth"
)

const (
	// DefaultMaxDepth is the render depth used by the terrain viewer.
	DefaultMaxDepth = 5

	// DefaultMaxBuildDepth caps subdivision. Coincident vertices would
	// otherwise split forever.
	DefaultMaxBuildDepth = 32
)

// VertexSource is the read-only view of a mesh needed to build the index.
type VertexSource interface {
	VertexCount() int
	VertexAt(i int) mathutil.Vec3
}

// Points adapts a plain slice of positions to VertexSource.
type Points []mathutil.Vec3

func (p Points) VertexCount() int { return len(p) }
func (p Points) VertexAt(i int) mathutil.Vec3 { return p[i] }

// Options control how a tree is built.
type Options struct {
	// MaxDepth is the deepest level drawn or reported by Struck. It does not
	// limit subdivision.
	MaxDepth int

	// MaxBuildDepth is the hard subdivision cap. Zero means
	// DefaultMaxBuildDepth. A node at this depth holding more than one vertex
	// becomes a multi-vertex leaf.
	MaxBuildDepth int

	// FailOnDepthLimit makes Generate fail instead of accepting multi-vertex
	// leaves at the cap.
	FailOnDepthLimit bool
}

// Tree is the spatial index over one mesh.
type Tree struct {
	root      *Node
	verts     []mathutil.Vec3
	maxDepth  int
	truncated int
}

// New builds a tree over src.
func New(src VertexSource, opts Options) (*Tree, error) {
	var t Tree
	if err := t.Generate(src, opts); err != nil {
		return nil, err
	}
	return &t, nil
}

// Generate builds the index over src, discarding any previous one. On error
// the tree is left unchanged.
func (t *Tree) Generate(src VertexSource, opts Options) error {
	start := time.Now()

	if opts.MaxDepth < 0 || opts.MaxBuildDepth < 0 {
		return errors.New("max depth must not be negative").
			WithType(ErrTypeInvalidDepth).
			WithTag("max_depth", opts.MaxDepth).
			WithTag("max_build_depth", opts.MaxBuildDepth)
	}
	if opts.MaxBuildDepth == 0 {
		opts.MaxBuildDepth = DefaultMaxBuildDepth
	}

	n := 0
	if src != nil {
		n = src.VertexCount()
	}
	if n == 0 {
		return errors.New("cannot build index over zero vertices").
			WithType(ErrTypeEmptyMesh)
	}

	verts := make([]mathutil.Vec3, n)
	indices := make([]int, n)
	for i := range verts {
		verts[i] = src.VertexAt(i)
		indices[i] = i
	}

	bounds, err := geom.BoundsOf(verts)
	if err != nil {
		return errors.New("computing mesh bounds failed").
			WithType(ErrTypeEmptyMesh).
			Wrap(err)
	}

	b := builder{
		verts:         verts,
		maxBuildDepth: opts.MaxBuildDepth,
		failOnLimit:   opts.FailOnDepthLimit,
	}
	root := newNode(bounds, 0, verts, indices)
	if err := root.subdivide(&b); err != nil {
		instrumentBuildError(err)
		return err
	}

	t.root = root
	t.verts = verts
	t.maxDepth = opts.MaxDepth
	t.truncated = b.truncated

	instrumentBuild(start, b.truncated)
	if b.truncated > 0 {
		logs.WithTag("truncated_leaves", b.truncated).
			WithTag("max_build_depth", opts.MaxBuildDepth).
			Warn("subdivision stopped at the depth limit, some leaves hold several vertices")
	}
	return nil
}

// Root returns the root node, or nil before Generate succeeded.
func (t *Tree) Root() *Node {
	return t.root
}

// Bounds returns the bounding box of the indexed mesh.
func (t *Tree) Bounds() geom.Box {
	if t.root == nil {
		return geom.Box{}
	}
	return t.root.Box
}

// MaxDepth returns the configured render depth.
func (t *Tree) MaxDepth() int {
	return t.maxDepth
}

// Truncated returns how many leaves were closed by the build depth cap.
func (t *Tree) Truncated() int {
	return t.truncated
}

// Vertex resolves a vertex index to its position.
func (t *Tree) Vertex(i int) mathutil.Vec3 {
	return t.verts[i]
}

// Search returns the vertex the ray lands on within the parameter window
// [t0, t1]. When the ray crosses several non-empty leaves the last one in
// octant order wins, not necessarily the nearest; see SearchNearest.
func (t *Tree) Search(r geom.Ray, t0, t1 float64) geom.MaybePoint {
	start := time.Now()
	if t.root == nil {
		return geom.None()
	}
	hit := t.root.intersects(t.verts, r, t0, t1)
	instrumentSearch(start, "order", hit.IsPresent())
	return hit
}

// SearchNearest is Search with nearest selection: among all struck leaves it
// returns the vertex whose projection on the ray has the smallest parameter
// inside [t0, t1]. Equal parameters go to the vertex closest to the ray.
// Every index of a multi-vertex leaf is considered.
func (t *Tree) SearchNearest(r geom.Ray, t0, t1 float64) geom.MaybePoint {
	const eps = 1e-9

	start := time.Now()
	if t.root == nil {
		return geom.None()
	}

	var (
		best     geom.MaybePoint
		bestT    float64
		bestDist float64
	)
	for _, leaf := range t.root.collectLeaves(r, t0, t1, nil) {
		for _, idx := range leaf.Indices {
			p := t.verts[idx]
			pt := r.Param(p)
			if pt < t0 || pt > t1 {
				continue
			}
			dist := p.Sub(r.At(pt)).Len()

			switch {
			case !best.IsPresent(), pt < bestT-eps:
			case pt <= bestT+eps && dist < bestDist:
			default:
				continue
			}
			best = geom.Some(p)
			bestT = pt
			bestDist = dist
		}
	}

	instrumentSearch(start, "nearest", best.IsPresent())
	return best
}

// StruckNode is a node the ray passes through, as drawn by the viewer.
type StruckNode struct {
	Box   geom.Box
	Depth int
	Leaf  bool
}

// Struck lists the non-empty nodes down to MaxDepth whose boxes the ray
// strikes, in traversal order.
func (t *Tree) Struck(r geom.Ray, t0, t1 float64) []StruckNode {
	if t.root == nil {
		return nil
	}

	var out []StruckNode
	t.root.walk(func(n *Node) bool {
		if n.Depth > t.maxDepth || len(n.Indices) == 0 || !n.Box.Intersect(r, t0, t1) {
			return false
		}
		out = append(out, StruckNode{Box: n.Box, Depth: n.Depth, Leaf: n.leaf})
		return true
	})
	return out
}

// Walk visits every node in pre-order. Returning false skips the children.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t.root == nil {
		return
	}
	t.root.walk(fn)
}
