package raster

import (
	"image"
	"image/color"
	"math"
)

// ScreenVertex is a projected corner: pixel position and inverse view depth.
type ScreenVertex struct {
	X, Y float64
	InvZ float64
}

// RasterizeTriangle fills a triangle with z-buffering. The base color (or the
// texel at the interpolated UV when tex is set) is lit by shade, then goes
// through sRGB decode, tone mapping and sRGB encode.
//
// This is the HOT PATH, with no allocation in the inner loop.
func RasterizeTriangle(
	fb *FrameBuffer,
	v [3]ScreenVertex,
	uv [3][2]float64,
	tex *image.NRGBA,
	base color.NRGBA,
	shade float64,
	lc *LightConfig,
) {
	x0, y0, z0 := v[0].X, v[0].Y, v[0].InvZ
	x1, y1, z1 := v[1].X, v[1].Y, v[1].InvZ
	x2, y2, z2 := v[2].X, v[2].Y, v[2].InvZ

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// UVs divided by depth interpolate linearly in screen space.
	u0, u1, u2 := uv[0][0]*z0, uv[1][0]*z1, uv[2][0]*z2
	t0, t1, t2 := uv[0][1]*z0, uv[1][1]*z1, uv[2][1]*z2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			cr, cg, cb, ca := base.R, base.G, base.B, base.A
			if tex != nil && z > 0 {
				u := (w0*u0 + w1*u1 + w2*u2) / z
				t := (w0*t0 + w1*t1 + w2*t2) / z
				cr, cg, cb, ca = SampleTexture(tex, u, t)
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = lc.shadeChannel(cr, shade)
			fb.Color[pxIdx+1] = lc.shadeChannel(cg, shade)
			fb.Color[pxIdx+2] = lc.shadeChannel(cb, shade)
			fb.Color[pxIdx+3] = ca
		}
	}
}

// DrawLine draws an unshaded line between two pixel positions on top of
// whatever is in the buffer. The z-buffer is not consulted.
func DrawLine(fb *FrameBuffer, x0, y0, x1, y1 float64, c color.NRGBA) {
	dx := x1 - x0
	dy := y1 - y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		fb.Set(int(math.Round(x0)), int(math.Round(y0)), c)
		return
	}

	// Lines far outside the viewport would take forever to walk.
	const maxSteps = 1 << 14
	if steps > maxSteps {
		return
	}

	sx := dx / float64(steps)
	sy := dy / float64(steps)
	x, y := x0, y0
	for i := 0; i <= steps; i++ {
		fb.Set(int(math.Round(x)), int(math.Round(y)), c)
		x += sx
		y += sy
	}
}

// FillSquare paints a square of half-size r pixels centered on (x, y).
func FillSquare(fb *FrameBuffer, x, y float64, r int, c color.NRGBA) {
	cx, cy := int(math.Round(x)), int(math.Round(y))
	for py := cy - r; py <= cy+r; py++ {
		for px := cx - r; px <= cx+r; px++ {
			fb.Set(px, py, c)
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
