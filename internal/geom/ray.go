package geom

import (
	"fmt"

	"martian-terrain/internal/mathutil"
)

// Ray is an origin and a direction. The direction is expected to be
// normalized by the caller.
type Ray struct {
	Origin    mathutil.Vec3
	Direction mathutil.Vec3
}

// NewRay returns a ray with its direction normalized.
func NewRay(origin, direction mathutil.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mathutil.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Param returns the parameter of the orthogonal projection of p onto the ray.
func (r Ray) Param(p mathutil.Vec3) float64 {
	return p.Sub(r.Origin).Dot(r.Direction)
}

func (r Ray) String() string {
	return fmt.Sprintf("ray(%v -> %v)", r.Origin, r.Direction)
}

// MaybePoint is a point that may be absent. The zero value is absent.
type MaybePoint struct {
	point   mathutil.Vec3
	present bool
}

// Some returns a present MaybePoint holding p.
func Some(p mathutil.Vec3) MaybePoint {
	return MaybePoint{point: p, present: true}
}

// None returns an absent MaybePoint.
func None() MaybePoint {
	return MaybePoint{}
}

// IsPresent reports whether a point was found.
func (m MaybePoint) IsPresent() bool {
	return m.present
}

// Get returns the point and whether it is present.
func (m MaybePoint) Get() (mathutil.Vec3, bool) {
	return m.point, m.present
}

// Set places a point in the container.
func (m *MaybePoint) Set(p mathutil.Vec3) {
	m.point = p
	m.present = true
}

// Clear marks the container as absent.
func (m *MaybePoint) Clear() {
	*m = MaybePoint{}
}

// Box returns a cube of half-size r around the point, for drawing a marker.
// The second value is false when the point is absent.
func (m MaybePoint) Box(r float64) (Box, bool) {
	if !m.present {
		return Box{}, false
	}
	d := mathutil.Vec3{r, r, r}
	return Box{Min: m.point.Sub(d), Max: m.point.Add(d)}, true
}

func (m MaybePoint) String() string {
	if !m.present {
		return "none"
	}
	return fmt.Sprintf("%.4f %.4f %.4f", m.point[0], m.point[1], m.point[2])
}
