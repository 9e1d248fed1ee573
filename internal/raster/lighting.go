package raster

import (
	"image/color"
	"math"

	"martian-terrain/internal/mathutil"
)

// Base colors for untextured terrain.
var (
	LowlandColor  = color.NRGBA{150, 78, 52, 255}
	HighlandColor = color.NRGBA{214, 150, 108, 255}
	RockColor     = color.NRGBA{92, 72, 66, 255}
)

// LightConfig describes a sun over dusty ground. Dust is matte, so there is no
// specular term.
type LightConfig struct {
	SunDir  mathutil.Vec3
	ViewDir mathutil.Vec3

	Ambient float64 // light scattered by airborne dust, reaches every face
	Sky     float64 // extra fill on faces open to the sky
	Sun     float64
	// Opposition brightens sunlit ground when the sun is behind the viewer.
	Opposition float64

	Exposure float64
	White    float64 // linear value mapped to full white
	InvGamma float64
}

// DefaultLightConfig returns a low afternoon sun with a faint sky fill.
func DefaultLightConfig() LightConfig {
	lc := LightConfig{
		SunDir:     mathutil.Vec3{0.45, 0.8, 0.35}.Normalize(),
		Ambient:    0.28,
		Sky:        0.22,
		Sun:        0.95,
		Opposition: 0.15,
		Exposure:   1.0,
		White:      1.6,
		InvGamma:   1.0 / 2.2,
	}
	return lc.WithView(mathutil.Vec3{0, -1, -1})
}

// WithView returns a copy of lc for a camera looking along view.
func (lc LightConfig) WithView(view mathutil.Vec3) LightConfig {
	lc.ViewDir = view.Normalize()
	return lc
}

// ComputeShade returns the light reaching a face with the given unit normal.
// Faces are lit from above whichever way they are wound.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	if normal[1] < 0 {
		normal = normal.Scale(-1)
	}
	sun := math.Max(normal.Dot(lc.SunDir), 0)
	sky := (normal[1] + 1) / 2
	back := math.Pow(math.Max(-lc.ViewDir.Dot(lc.SunDir), 0), 4)
	return lc.Ambient + sky*lc.Sky + sun*(lc.Sun+back*lc.Opposition)
}

// TerrainTint returns the base color of a face at relative altitude alt
// (0 at the lowest vertex, 1 at the highest). Faces steeper than about 35
// degrees fade to bare rock.
func TerrainTint(alt float64, normal mathutil.Vec3) color.NRGBA {
	c := lerpColor(LowlandColor, HighlandColor, clamp01(alt))
	slope := 1 - math.Abs(normal[1])
	return lerpColor(c, RockColor, smoothstep(0.15, 0.45, slope))
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return clamp255(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

func smoothstep(lo, hi, x float64) float64 {
	t := clamp01((x - lo) / (hi - lo))
	return t * t * (3 - 2*t)
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// tonemap is extended Reinhard: highlights roll off and lc.White maps to 1.
func (lc *LightConfig) tonemap(x float64) float64 {
	w2 := lc.White * lc.White
	return x * (1 + x/w2) / (1 + x)
}

// shadeChannel lights one sRGB channel and encodes it back to sRGB.
func (lc *LightConfig) shadeChannel(c uint8, shade float64) uint8 {
	l := srgbToLinear[c] * shade * lc.Exposure
	return clamp255(math.Pow(lc.tonemap(l), lc.InvGamma) * 255)
}
