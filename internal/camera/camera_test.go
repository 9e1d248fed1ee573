package camera

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"

	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
)

func TestRayThroughCenterPixel(t *testing.T) {
	c := Camera{Position: mathutil.V3(1, 2, 3), FOV: 90, Width: 100, Height: 100}

	r, err := c.RayThroughPixel(49.5, 49.5)
	require.NoError(t, err)
	require.Equal(t, c.Position, r.Origin)
	require.InDelta(t, 0, r.Direction[0], 1e-12)
	require.InDelta(t, 0, r.Direction[1], 1e-12)
	require.InDelta(t, -1, r.Direction[2], 1e-12)

	// Top-left pixel center of a 90 degree square view.
	r, err = c.RayThroughPixel(0, 0)
	require.NoError(t, err)
	require.Less(t, r.Direction[0], 0.0)
	require.Greater(t, r.Direction[1], 0.0)
	require.InDelta(t, 1, r.Direction.Len(), 1e-12)
}

func TestLookingDown(t *testing.T) {
	c := Camera{Position: mathutil.V3(0, 50, 0), Pitch: -90, Width: 64, Height: 48}
	f := c.Forward()
	require.InDelta(t, 0, f[0], 1e-12)
	require.InDelta(t, -1, f[1], 1e-12)
	require.InDelta(t, 0, f[2], 1e-12)
}

func TestProjectRoundTrip(t *testing.T) {
	c := Camera{
		Position: mathutil.V3(10, 40, 80),
		Yaw:      30,
		Pitch:    -35,
		FOV:      50,
		Width:    320,
		Height:   200,
	}

	pixels := [][2]float64{{0, 0}, {319, 199}, {160, 100}, {12.25, 180.5}}
	for _, px := range pixels {
		r, err := c.RayThroughPixel(px[0], px[1])
		require.NoError(t, err)

		x, y, depth, ok := c.Project(r.At(25))
		require.True(t, ok)
		require.InDelta(t, px[0], x, 1e-6)
		require.InDelta(t, px[1], y, 1e-6)
		require.Greater(t, depth, 0.0)
	}

	_, _, _, ok := c.Project(c.Position.Sub(c.Forward()))
	require.False(t, ok)
}

func TestViewportErrors(t *testing.T) {
	tests := []struct {
		name   string
		camera Camera
		x, y   float64
	}{
		{name: "empty viewport", camera: Camera{Width: 0, Height: 10}},
		{name: "fov too wide", camera: Camera{FOV: 180, Width: 10, Height: 10}},
		{name: "negative pixel", camera: Camera{Width: 10, Height: 10}, x: -1},
		{name: "pixel past edge", camera: Camera{Width: 10, Height: 10}, y: 10},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.camera.RayThroughPixel(test.x, test.y)
			require.Error(t, err)
			require.Equal(t, ErrTypeViewport, errors.Type(err))
		})
	}
}

func TestOverlooking(t *testing.T) {
	b := geom.NewBox(mathutil.V3(0, 0, 0), mathutil.V3(100, 10, 100))
	c := Overlooking(b, 400, 300)

	x, y, _, ok := c.Project(b.Center())
	require.True(t, ok)
	require.InDelta(t, 199.5, x, 1e-6)
	require.InDelta(t, 149.5, y, 1e-6)

	for _, p := range []mathutil.Vec3{b.Min, b.Max, mathutil.V3(100, 0, 0), mathutil.V3(0, 10, 100)} {
		x, y, _, ok := c.Project(p)
		require.True(t, ok)
		require.GreaterOrEqual(t, x, -0.51)
		require.LessOrEqual(t, x, 399.51)
		require.GreaterOrEqual(t, y, -0.51)
		require.LessOrEqual(t, y, 299.51)
	}
}
