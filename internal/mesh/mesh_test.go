package mesh

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"

	"martian-terrain/internal/mathutil"
)

const quadOBJ = `# terrain patch
o patch
v 0 0 0
v 1 0 0
v 1 0.5 1
v 0 0.25 1
vn 0 1 0
vt 0 0
f 1/1/1 2/1/1 3/1/1 4/1/1
f -4 -3 -2
`

func TestParseOBJ(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(quadOBJ), "")
	require.NoError(t, err)
	require.Equal(t, "patch", m.Name)
	require.Equal(t, 4, m.VertexCount())
	require.Equal(t, mathutil.V3(1, 0.5, 1), m.VertexAt(2))
	require.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 1, 2}}, m.Faces)

	tri := m.Triangle(1)
	require.Equal(t, mathutil.V3(0, 0.25, 1), tri[2])

	b, err := m.Bounds()
	require.NoError(t, err)
	require.Equal(t, mathutil.V3(0, 0, 0), b.Min)
	require.Equal(t, mathutil.V3(1, 0.5, 1), b.Max)
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		errType string
	}{
		{name: "no vertices", data: "# nothing\n", errType: ErrTypeEmpty},
		{name: "short vertex", data: "v 1 2\n", errType: ErrTypeParse},
		{name: "bad number", data: "v 1 x 2\n", errType: ErrTypeParse},
		{name: "face out of range", data: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", errType: ErrTypeParse},
		{name: "zero face index", data: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", errType: ErrTypeParse},
		{name: "short face", data: "v 0 0 0\nv 1 0 0\nf 1 2\n", errType: ErrTypeParse},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(test.data), test.name)
			require.Error(t, err)
			require.Equal(t, test.errType, errors.Type(err))
		})
	}
}

func TestFromHeightmap(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(2, 1, color.Gray{Y: 255})
	img.SetGray(1, 0, color.Gray{Y: 0})

	m, err := FromHeightmap(img, HeightmapOptions{Spacing: 2, HeightScale: 8})
	require.NoError(t, err)
	require.Equal(t, 6, m.VertexCount())
	require.Len(t, m.Faces, 4)

	require.Equal(t, mathutil.V3(0, 0, 0), m.VertexAt(0))
	require.Equal(t, mathutil.V3(4, 8, 2), m.VertexAt(5))

	for _, f := range m.Faces {
		for _, i := range f {
			require.GreaterOrEqual(t, i, 0)
			require.Less(t, i, m.VertexCount())
		}
	}

	_, err = FromHeightmap(image.NewGray(image.Rect(0, 0, 1, 5)), DefaultHeightmapOptions())
	require.Error(t, err)
	require.Equal(t, ErrTypeEmpty, errors.Type(err))
}

func TestLoadHeightmapPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 16)
	}

	path := filepath.Join(t.TempDir(), "terrain.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	m, err := Load(path, DefaultHeightmapOptions())
	require.NoError(t, err)
	require.Equal(t, "terrain.png", m.Name)
	require.Equal(t, 16, m.VertexCount())
	require.Len(t, m.Faces, 18)
}

func TestLoadOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mars-low.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 0 1\nf 1 2 3\n"), 0644))

	m, err := Load(path, HeightmapOptions{})
	require.NoError(t, err)
	require.Equal(t, "mars-low", m.Name)
	require.Len(t, m.Faces, 1)
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("terrain.fbx", HeightmapOptions{})
	require.Error(t, err)
	require.Equal(t, ErrTypeUnsupported, errors.Type(err))
}

func TestTransform(t *testing.T) {
	m := &Mesh{Verts: []mathutil.Vec3{mathutil.V3(1, 2, 3), mathutil.V3(-1, 0, 0)}}
	m.Transform(mathutil.Mat4Mul(
		mathutil.FromMat3Translation(mathutil.Mat3Identity(), mathutil.V3(0, 10, 0)),
		mathutil.Mat4Scale(2),
	))
	require.Equal(t, []mathutil.Vec3{mathutil.V3(2, 14, 6), mathutil.V3(-2, 10, 0)}, m.Verts)
}
