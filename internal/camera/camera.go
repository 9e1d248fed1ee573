// Package camera turns screen pixels into world rays and world points back
// into screen coordinates for a pinhole camera.
package camera

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
)

const ErrTypeViewport = "camera_viewport"

// DefaultFOV is the vertical field of view in degrees.
const DefaultFOV = 60.0

// nearPlane is the smallest view depth Project accepts.
const nearPlane = 1e-6

// Camera looks down its local -Z axis. Yaw turns around world Y and pitch
// tilts around the camera X axis; a negative pitch looks down.
type Camera struct {
	Position mathutil.Vec3 `json:"position"`
	Yaw      float64       `json:"yaw"`
	Pitch    float64       `json:"pitch"`
	FOV      float64       `json:"fov"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
}

// Orientation returns the camera-to-world rotation. Its columns are the
// right, up and backward axes.
func (c Camera) Orientation() mathutil.Mat3 {
	return mathutil.YawPitch(c.Yaw, c.Pitch)
}

// Forward is the world direction the camera looks at.
func (c Camera) Forward() mathutil.Vec3 {
	return c.Orientation().Column(2).Scale(-1)
}

// View returns the world-to-camera transform.
func (c Camera) View() mathutil.Mat4 {
	rt := c.Orientation().Transpose()
	return mathutil.FromMat3Translation(rt, rt.MulVec3(c.Position).Scale(-1))
}

// Validate checks the viewport size and field of view.
func (c Camera) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New("camera viewport is empty").
			WithType(ErrTypeViewport).
			WithTag("width", c.Width).
			WithTag("height", c.Height)
	}
	if c.fov() <= 0 || c.fov() >= 180 {
		return errors.New("camera field of view out of range").
			WithType(ErrTypeViewport).
			WithTag("fov", c.FOV)
	}
	return nil
}

func (c Camera) fov() float64 {
	if c.FOV == 0 {
		return DefaultFOV
	}
	return c.FOV
}

// extent returns the half-width and half-height of the image plane at unit
// distance.
func (c Camera) extent() (float64, float64) {
	h := math.Tan(mathutil.Deg2Rad(c.fov()) / 2)
	return h * float64(c.Width) / float64(c.Height), h
}

// RayThroughPixel returns a ray from the camera position through the center
// of pixel (px, py). Pixel (0, 0) is the top-left corner of the viewport.
func (c Camera) RayThroughPixel(px, py float64) (geom.Ray, error) {
	if err := c.Validate(); err != nil {
		return geom.Ray{}, err
	}
	if px < 0 || py < 0 || px >= float64(c.Width) || py >= float64(c.Height) {
		return geom.Ray{}, errors.New("pixel outside the viewport").
			WithType(ErrTypeViewport).
			WithTag("x", px).
			WithTag("y", py)
	}

	ex, ey := c.extent()
	x := (2*(px+0.5)/float64(c.Width) - 1) * ex
	y := (1 - 2*(py+0.5)/float64(c.Height)) * ey

	dir := c.Orientation().MulVec3(mathutil.Vec3{x, y, -1})
	return geom.NewRay(c.Position, dir), nil
}

// Project maps a world point to pixel coordinates and its view depth. ok is
// false for points behind the camera or when the viewport is invalid. The
// returned coordinates are not clipped to the viewport.
func (c Camera) Project(p mathutil.Vec3) (x, y, depth float64, ok bool) {
	if c.Validate() != nil {
		return 0, 0, 0, false
	}

	local := c.View().MulPoint(p)
	depth = -local[2]
	if depth < nearPlane {
		return 0, 0, depth, false
	}

	ex, ey := c.extent()
	nx := local[0] / depth / ex
	ny := local[1] / depth / ey
	x = (nx+1)*float64(c.Width)/2 - 0.5
	y = (1-ny)*float64(c.Height)/2 - 0.5
	return x, y, depth, true
}

// Overlooking places a camera above the center of b, pulled back along +Z and
// pitched down so the whole box is in view.
func Overlooking(b geom.Box, width, height int) Camera {
	size := b.Size()
	radius := size.Len() / 2
	if radius == 0 {
		radius = 1
	}
	center := b.Center()

	const pitch = -45.0
	dist := radius / math.Sin(mathutil.Deg2Rad(DefaultFOV)/2)

	c := Camera{
		Yaw:    0,
		Pitch:  pitch,
		FOV:    DefaultFOV,
		Width:  width,
		Height: height,
	}
	c.Position = center.Sub(c.Forward().Scale(dist))
	return c
}
