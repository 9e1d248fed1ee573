package mesh

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"martian-terrain/internal/mathutil"
)

// LoadOBJ reads a Wavefront OBJ file. Only geometry is kept: vertex
// positions and faces, with polygons fan-triangulated.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("opening obj file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseOBJ(f, name)
}

// ParseOBJ parses OBJ text from r.
func ParseOBJ(r io.Reader, name string) (*Mesh, error) {
	m := &Mesh{Name: name}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, parseError(name, line, err)
			}
			m.Verts = append(m.Verts, v)

		case "f":
			idx, err := parseFace(fields[1:], len(m.Verts))
			if err != nil {
				return nil, parseError(name, line, err)
			}
			for i := 1; i+1 < len(idx); i++ {
				m.Faces = append(m.Faces, [3]int{idx[0], idx[i], idx[i+1]})
			}

		case "o":
			if len(fields) > 1 && m.Name == "" {
				m.Name = fields[1]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New("reading obj data failed").Wrap(err)
	}

	if len(m.Verts) == 0 {
		return nil, errors.New("obj data has no vertices").
			WithType(ErrTypeEmpty).
			WithTag("name", name)
	}
	return m, nil
}

func parseError(name string, line int, err error) error {
	return errors.New("invalid obj statement").
		WithType(ErrTypeParse).
		WithTag("name", name).
		WithTag("line", line).
		Wrap(err)
}

func parseVertex(fields []string) (mathutil.Vec3, error) {
	if len(fields) < 3 {
		return mathutil.Vec3{}, errors.Newf("vertex needs 3 coordinates, got %d", len(fields))
	}

	var v mathutil.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return mathutil.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// parseFace resolves face corners of the form v, v/vt, v//vn or v/vt/vn.
// Negative indices count back from the last vertex read so far.
func parseFace(fields []string, nverts int) ([]int, error) {
	if len(fields) < 3 {
		return nil, errors.Newf("face needs at least 3 corners, got %d", len(fields))
	}

	idx := make([]int, len(fields))
	for i, field := range fields {
		ref, _, _ := strings.Cut(field, "/")
		n, err := strconv.Atoi(ref)
		if err != nil {
			return nil, err
		}

		switch {
		case n > 0:
			n--
		case n < 0:
			n += nverts
		default:
			return nil, errors.New("face index 0 is not valid")
		}
		if n < 0 || n >= nverts {
			return nil, errors.Newf("face index %s out of range", ref)
		}
		idx[i] = n
	}
	return idx, nil
}
