package mesh

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"

	"martian-terrain/internal/mathutil"
)

// HeightmapOptions scale a heightmap grid into world units.
type HeightmapOptions struct {
	// Spacing is the distance between neighbouring samples on X and Z.
	Spacing float64 `json:"spacing"`
	// HeightScale maps a full-white sample to this Y value.
	HeightScale float64 `json:"height"`
}

// DefaultHeightmapOptions returns unit spacing and a height range of 10.
func DefaultHeightmapOptions() HeightmapOptions {
	return HeightmapOptions{Spacing: 1, HeightScale: 10}
}

// LoadHeightmap decodes a grayscale image (TGA, PNG, JPEG or BMP) and
// builds a terrain grid from it.
func LoadHeightmap(path string, opts HeightmapOptions) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("opening heightmap failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.New("decoding heightmap failed").
			WithType(ErrTypeParse).
			WithTag("path", path).
			Wrap(err)
	}

	m, err := FromHeightmap(img, opts)
	if err != nil {
		return nil, err
	}
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "." + format
	return m, nil
}

// FromHeightmap builds a grid with one vertex per pixel. Pixel (x, y) maps to
// world (x*Spacing, luminance*HeightScale, y*Spacing) and every cell is split
// into two triangles.
func FromHeightmap(img image.Image, opts HeightmapOptions) (*Mesh, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return nil, errors.New("heightmap needs at least 2x2 samples").
			WithType(ErrTypeEmpty).
			WithTag("width", w).
			WithTag("height", h)
	}
	if opts.Spacing <= 0 {
		opts.Spacing = 1
	}

	m := &Mesh{
		Verts: make([]mathutil.Vec3, 0, w*h),
		Faces: make([][3]int, 0, 2*(w-1)*(h-1)),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			height := float64(g.Y) / 0xffff * opts.HeightScale
			m.Verts = append(m.Verts, mathutil.Vec3{
				float64(x) * opts.Spacing,
				height,
				float64(y) * opts.Spacing,
			})
		}
	}

	for y := 0; y+1 < h; y++ {
		for x := 0; x+1 < w; x++ {
			i := y*w + x
			m.Faces = append(m.Faces,
				[3]int{i, i + w, i + 1},
				[3]int{i + 1, i + w, i + w + 1},
			)
		}
	}
	return m, nil
}
