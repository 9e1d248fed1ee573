package path

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"martian-terrain/internal/mathutil"
)

// Compressed variants of a path file, selected by the trailing suffix.
const (
	ZstdSuffix   = ".zst"
	SnappySuffix = ".sz"
)

// Encode writes one "x y z" line per point.
func (p *Path) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d points\n", len(p.points))
	for _, pt := range p.points {
		bw.WriteString(strconv.FormatFloat(pt[0], 'g', -1, 64))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(pt[1], 'g', -1, 64))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(pt[2], 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Decode reads points written by Encode. Blank lines and lines starting with
// '#' are skipped.
func Decode(r io.Reader) (*Path, error) {
	p := &Path{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, errors.Newf("expected 3 coordinates, got %d", len(fields)).
				WithType(ErrTypeParse).
				WithTag("line", line)
		}

		var pt mathutil.Vec3
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.New("invalid coordinate").
					WithType(ErrTypeParse).
					WithTag("line", line).
					Wrap(err)
			}
			pt[i] = v
		}
		p.points = append(p.points, pt)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New("reading path data failed").Wrap(err)
	}
	return p, nil
}

// Save writes the path to filename, compressing it when the name ends in
// .zst or .sz.
func (p *Path) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.New("creating path file failed").
			WithTag("path", filename).
			Wrap(err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(filename, ZstdSuffix):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return errors.New("creating zstd writer failed").Wrap(err)
		}
		if err := p.Encode(zw); err != nil {
			zw.Close()
			return errors.New("writing path file failed").
				WithTag("path", filename).
				Wrap(err)
		}
		if err := zw.Close(); err != nil {
			return errors.New("flushing zstd stream failed").
				WithTag("path", filename).
				Wrap(err)
		}

	case strings.HasSuffix(filename, SnappySuffix):
		sw := snappy.NewBufferedWriter(f)
		if err := p.Encode(sw); err != nil {
			sw.Close()
			return errors.New("writing path file failed").
				WithTag("path", filename).
				Wrap(err)
		}
		if err := sw.Close(); err != nil {
			return errors.New("flushing snappy stream failed").
				WithTag("path", filename).
				Wrap(err)
		}

	default:
		if err := p.Encode(f); err != nil {
			return errors.New("writing path file failed").
				WithTag("path", filename).
				Wrap(err)
		}
	}
	return f.Close()
}

// Load reads a path file written by Save.
func Load(filename string) (*Path, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.New("opening path file failed").
			WithTag("path", filename).
			Wrap(err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(filename, ZstdSuffix):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.New("creating zstd reader failed").
				WithTag("path", filename).
				Wrap(err)
		}
		defer zr.Close()
		r = zr

	case strings.HasSuffix(filename, SnappySuffix):
		r = snappy.NewReader(f)
	}

	p, err := Decode(r)
	if err != nil {
		return nil, errors.New("loading path file failed").
			WithType(errors.Type(err)).
			WithTag("path", filename).
			Wrap(err)
	}
	return p, nil
}

// LoadOrNew loads filename, or returns an empty path when it does not exist.
func LoadOrNew(filename string) (*Path, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return &Path{}, nil
	}
	return Load(filename)
}
