// Package path keeps the ordered points of a rover path picked on the terrain
// and persists them as .mars files.
package path

import (
	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/mathutil"
)

const (
	ErrTypeParse      = "path_parse"
	ErrTypeOutOfRange = "path_out_of_range"
)

// Ext is the file extension of saved paths.
const Ext = ".mars"

// DefaultTolerance is the distance under which two points are the same path
// point.
const DefaultTolerance = 1e-6

// Path is an ordered list of points. The zero value is an empty path.
type Path struct {
	points []mathutil.Vec3
}

// New returns a path holding a copy of points.
func New(points ...mathutil.Vec3) *Path {
	return &Path{points: append([]mathutil.Vec3(nil), points...)}
}

func (p *Path) Len() int {
	return len(p.points)
}

// Points returns a copy of the path points.
func (p *Path) Points() []mathutil.Vec3 {
	return append([]mathutil.Vec3(nil), p.points...)
}

// At returns point i.
func (p *Path) At(i int) mathutil.Vec3 {
	return p.points[i]
}

// Append adds a point at the end of the path.
func (p *Path) Append(pt mathutil.Vec3) {
	p.points = append(p.points, pt)
}

// Find returns the index of the first point within tol of pt, or -1.
func (p *Path) Find(pt mathutil.Vec3, tol float64) int {
	for i, q := range p.points {
		if q.ApproxEqual(pt, tol) {
			return i
		}
	}
	return -1
}

// Replace overwrites point i.
func (p *Path) Replace(i int, pt mathutil.Vec3) error {
	if i < 0 || i >= len(p.points) {
		return errors.New("path index out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("index", i).
			WithTag("len", len(p.points))
	}
	p.points[i] = pt
	return nil
}

// Remove deletes point i.
func (p *Path) Remove(i int) error {
	if i < 0 || i >= len(p.points) {
		return errors.New("path index out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("index", i).
			WithTag("len", len(p.points))
	}
	p.points = append(p.points[:i], p.points[i+1:]...)
	return nil
}

// Length returns the length of the polyline through the points.
func (p *Path) Length() float64 {
	var l float64
	for i := 1; i < len(p.points); i++ {
		l += p.points[i].Sub(p.points[i-1]).Len()
	}
	return l
}

// PointAt returns the point at fraction pct of the polyline length, clamped
// to [0, 1]. ok is false for an empty path.
func (p *Path) PointAt(pct float64) (pt mathutil.Vec3, ok bool) {
	switch len(p.points) {
	case 0:
		return mathutil.Vec3{}, false
	case 1:
		return p.points[0], true
	}

	if pct <= 0 {
		return p.points[0], true
	}
	if pct >= 1 {
		return p.points[len(p.points)-1], true
	}

	remaining := pct * p.Length()
	for i := 1; i < len(p.points); i++ {
		seg := p.points[i].Sub(p.points[i-1])
		l := seg.Len()
		if remaining <= l && l > 0 {
			return p.points[i-1].Add(seg.Scale(remaining / l)), true
		}
		remaining -= l
	}
	return p.points[len(p.points)-1], true
}
