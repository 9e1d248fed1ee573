// Package mesh loads terrain geometry: Wavefront OBJ models and heightmap
// images turned into a regular triangle grid.
package mesh

import (
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
)

const (
	ErrTypeParse       = "mesh_parse"
	ErrTypeEmpty       = "mesh_empty"
	ErrTypeUnsupported = "mesh_unsupported"
)

// Mesh holds vertex positions and triangles indexing into them.
type Mesh struct {
	Name  string
	Verts []mathutil.Vec3
	Faces [][3]int
}

func (m *Mesh) VertexCount() int {
	return len(m.Verts)
}

func (m *Mesh) VertexAt(i int) mathutil.Vec3 {
	return m.Verts[i]
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (geom.Box, error) {
	b, err := geom.BoundsOf(m.Verts)
	if err != nil {
		return geom.Box{}, errors.New("mesh has no vertices").
			WithType(ErrTypeEmpty).
			WithTag("name", m.Name).
			Wrap(err)
	}
	return b, nil
}

// Triangle returns the three corners of face i.
func (m *Mesh) Triangle(i int) [3]mathutil.Vec3 {
	f := m.Faces[i]
	return [3]mathutil.Vec3{m.Verts[f[0]], m.Verts[f[1]], m.Verts[f[2]]}
}

// Transform moves every vertex by t, in place.
func (m *Mesh) Transform(t mathutil.Mat4) {
	for i, v := range m.Verts {
		m.Verts[i] = t.MulPoint(v)
	}
}

// Load reads an OBJ model or a heightmap image depending on the extension.
func Load(path string, opts HeightmapOptions) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obj":
		return LoadOBJ(path)
	case ".tga", ".png", ".jpg", ".jpeg", ".bmp":
		return LoadHeightmap(path, opts)
	default:
		return nil, errors.New("unsupported mesh format").
			WithType(ErrTypeUnsupported).
			WithTag("path", path).
			WithTag("extension", ext)
	}
}
