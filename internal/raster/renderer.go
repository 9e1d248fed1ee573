package raster

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/camera"
	"martian-terrain/internal/geom"
	"martian-terrain/internal/mesh"
	"martian-terrain/internal/octree"
	"martian-terrain/internal/postprocess"
)

var (
	BackgroundColor = color.NRGBA{14, 11, 18, 255}
	NodeColor       = color.NRGBA{190, 190, 200, 255}
	StruckColor     = color.NRGBA{235, 40, 40, 255}
	SelectedColor   = color.NRGBA{70, 235, 95, 255}
)

// Scene is everything a debug view can show.
type Scene struct {
	Mesh *mesh.Mesh
	// Texture is draped over the terrain on X and Z when set.
	Texture *image.NRGBA
	// Tree outlines are drawn up to the tree's render depth.
	Tree     *octree.Tree
	Struck   []octree.StruckNode
	Selected geom.MaybePoint
}

// Options control a single render.
type Options struct {
	Camera      camera.Camera
	Supersample int
	ShowTree    bool
}

// Render draws the scene as seen by opts.Camera. With supersampling the
// frame is rendered larger and downsampled to the camera viewport.
func Render(s Scene, opts Options) (*image.NRGBA, error) {
	if err := opts.Camera.Validate(); err != nil {
		return nil, err
	}

	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	cam := opts.Camera
	cam.Width *= ss
	cam.Height *= ss

	fb := NewFrameBuffer(cam.Width, cam.Height)
	fb.Fill(BackgroundColor)
	lc := DefaultLightConfig().WithView(cam.Forward())

	if s.Mesh != nil {
		drawTerrain(fb, cam, s.Mesh, s.Texture, &lc)
	}

	if s.Tree != nil && opts.ShowTree {
		maxDepth := s.Tree.MaxDepth()
		s.Tree.Walk(func(n *octree.Node) bool {
			if n.Depth > maxDepth {
				return false
			}
			if len(n.Indices) > 0 {
				drawBox(fb, cam, n.Box, NodeColor)
			}
			return true
		})
	}

	for _, n := range s.Struck {
		drawBox(fb, cam, n.Box, StruckColor)
	}

	if p, ok := s.Selected.Get(); ok {
		r := 0.05
		if s.Tree != nil {
			r = math.Max(s.Tree.Bounds().Size().Len()*0.004, 1e-3)
		}
		if b, ok := s.Selected.Box(r); ok {
			drawBox(fb, cam, b, SelectedColor)
		}
		if x, y, _, ok := cam.Project(p); ok {
			FillSquare(fb, x, y, 2*ss, SelectedColor)
		}
	}

	img := fb.Image()
	if ss > 1 {
		img = postprocess.Downsample(img, opts.Camera.Width, opts.Camera.Height)
	}
	return img, nil
}

func drawTerrain(fb *FrameBuffer, cam camera.Camera, m *mesh.Mesh, tex *image.NRGBA, lc *LightConfig) {
	sv := make([]ScreenVertex, len(m.Verts))
	visible := make([]bool, len(m.Verts))
	for i, p := range m.Verts {
		x, y, depth, ok := cam.Project(p)
		if !ok {
			continue
		}
		sv[i] = ScreenVertex{X: x, Y: y, InvZ: 1 / depth}
		visible[i] = true
	}

	bounds, err := m.Bounds()
	if err != nil {
		return
	}
	size := bounds.Size()

	for i, f := range m.Faces {
		// Triangles crossing the camera plane are dropped rather than clipped.
		if !visible[f[0]] || !visible[f[1]] || !visible[f[2]] {
			continue
		}

		tri := m.Triangle(i)
		normal := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])).Normalize()
		if normal.Len() == 0 {
			continue
		}
		shade := lc.ComputeShade(normal)

		// Untextured faces are tinted by altitude and slope.
		alt := ratio((tri[0][1]+tri[1][1]+tri[2][1])/3-bounds.Min[1], size[1])
		base := TerrainTint(alt, normal)

		var uv [3][2]float64
		if tex != nil {
			for k, p := range tri {
				uv[k] = [2]float64{
					ratio(p[0]-bounds.Min[0], size[0]),
					ratio(p[2]-bounds.Min[2], size[2]),
				}
			}
		}

		RasterizeTriangle(fb, [3]ScreenVertex{sv[f[0]], sv[f[1]], sv[f[2]]}, uv, tex, base, shade, lc)
	}
}

func ratio(v, span float64) float64 {
	if span == 0 {
		return 0
	}
	return v / span
}

// drawBox outlines the 12 edges of b. Edges with a corner behind the camera
// are skipped.
func drawBox(fb *FrameBuffer, cam camera.Camera, b geom.Box, c color.NRGBA) {
	var xs, ys [8]float64
	var ok [8]bool
	for i := 0; i < 8; i++ {
		p := b.Min
		if i&1 != 0 {
			p[0] = b.Max[0]
		}
		if i&2 != 0 {
			p[1] = b.Max[1]
		}
		if i&4 != 0 {
			p[2] = b.Max[2]
		}
		xs[i], ys[i], _, ok[i] = cam.Project(p)
	}

	for i := 0; i < 8; i++ {
		for _, bit := range [3]int{1, 2, 4} {
			j := i | bit
			if i&bit != 0 || !ok[i] || !ok[j] {
				continue
			}
			DrawLine(fb, xs[i], ys[i], xs[j], ys[j], c)
		}
	}
}

// WriteWebP encodes img as lossless WebP at filename, creating parent
// directories as needed.
func WriteWebP(filename string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.New("creating output directory failed").
			WithTag("path", filename).
			Wrap(err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return errors.New("creating webp file failed").
			WithTag("path", filename).
			Wrap(err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return errors.New("webp encode failed").
			WithTag("path", filename).
			Wrap(err)
	}
	return f.Close()
}
