// Package geom holds the bounding-volume primitives used by the terrain index:
// axis-aligned boxes, rays and the optional point returned by a pick.
package geom

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/mathutil"
)

// ErrTypeEmptyPoints is the error type returned when bounds are requested for
// an empty point set.
const ErrTypeEmptyPoints = "geom_empty_points"

// Box is an axis-aligned bounding box. Callers pass corners already ordered
// (Min <= Max on every axis); the box never re-sorts them.
type Box struct {
	Min mathutil.Vec3
	Max mathutil.Vec3
}

// NewBox returns the box spanning min and max.
func NewBox(min, max mathutil.Vec3) Box {
	return Box{Min: min, Max: max}
}

// Center returns the midpoint of the box.
func (b Box) Center() mathutil.Vec3 {
	return b.Max.Sub(b.Min).Div(2).Add(b.Min)
}

// Size returns the vector from Min to Max.
func (b Box) Size() mathutil.Vec3 {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the box, faces included.
func (b Box) Contains(p mathutil.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Union returns the smallest box enclosing both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: b.Min.Min(o.Min).Min(b.Max).Min(o.Max),
		Max: b.Max.Max(o.Max).Max(b.Min).Max(o.Min),
	}
}

// Compose bounds all the given boxes. It returns the zero box when called
// without arguments.
func Compose(boxes ...Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out
}

// Octants splits the box along its three midplanes. Order: the min octant,
// then +X, +X+Z, +Z, followed by the same four shifted by +Y.
func (b Box) Octants() [8]Box {
	c := b.Center()
	lo, hi := b.Min, b.Max

	span := func(upper bool, axis int) (float64, float64) {
		if upper {
			return c[axis], hi[axis]
		}
		return lo[axis], c[axis]
	}

	var out [8]Box
	layout := [4][2]bool{
		{false, false}, // x, z
		{true, false},
		{true, true},
		{false, true},
	}
	for i := 0; i < 8; i++ {
		xUp, zUp := layout[i%4][0], layout[i%4][1]
		yUp := i >= 4

		x0, x1 := span(xUp, 0)
		y0, y1 := span(yUp, 1)
		z0, z1 := span(zUp, 2)
		out[i] = Box{
			Min: mathutil.Vec3{x0, y0, z0},
			Max: mathutil.Vec3{x1, y1, z1},
		}
	}
	return out
}

// Intersect is the ray-slab test. It reports whether the ray crosses the box
// for some parameter t within [t0, t1].
func (b Box) Intersect(r Ray, t0, t1 float64) bool {
	_, _, ok := b.IntersectRange(r, t0, t1)
	return ok
}

// IntersectRange runs the slab test and returns the parametric interval in
// which the ray is inside the box, clipped to [t0, t1].
//
// A zero direction component means the ray is parallel to that slab: it
// misses when the origin lies outside the slab and otherwise the axis does
// not constrain t.
func (b Box) IntersectRange(r Ray, t0, t1 float64) (near, far float64, ok bool) {
	near, far = math.Inf(-1), math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := r.Origin[axis]
		d := r.Direction[axis]
		lo, hi := b.Min[axis], b.Max[axis]

		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}

		inv := 1 / d
		tl := (lo - o) * inv
		th := (hi - o) * inv
		if tl > th {
			tl, th = th, tl
		}
		if tl > near {
			near = tl
		}
		if th < far {
			far = th
		}
		if near > far {
			return 0, 0, false
		}
	}

	if near > t1 || far < t0 {
		return 0, 0, false
	}
	return math.Max(near, t0), math.Min(far, t1), true
}

// BoundsOf computes the bounding box of a point set in a single pass.
func BoundsOf(points []mathutil.Vec3) (Box, error) {
	if len(points) == 0 {
		return Box{}, errors.New("cannot compute bounds of zero points").
			WithType(ErrTypeEmptyPoints)
	}

	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b, nil
}
