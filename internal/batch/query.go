package batch

import (
	"fmt"
	"os"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"

	"martian-terrain/internal/camera"
	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
)

const ErrTypeQuery = "batch_query"

// Query is one pick request: either a screen pixel seen through the batch
// camera, or an explicit world-space ray.
type Query struct {
	ID        string         `json:"id"`
	Pixel     *[2]float64    `json:"pixel,omitempty"`
	Origin    *mathutil.Vec3 `json:"origin,omitempty"`
	Direction *mathutil.Vec3 `json:"direction,omitempty"`
}

// PixelQuery returns a query for screen position (x, y).
func PixelQuery(id string, x, y float64) Query {
	return Query{ID: id, Pixel: &[2]float64{x, y}}
}

// RayQuery returns a query for an explicit ray.
func RayQuery(id string, origin, direction mathutil.Vec3) Query {
	return Query{ID: id, Origin: &origin, Direction: &direction}
}

// CheckID rejects IDs that cannot be used as a file name inside the output
// directory.
func (q Query) CheckID() error {
	if q.ID == "" || q.ID == "." || q.ID == ".." || strings.ContainsAny(q.ID, `/\`) {
		return errors.New("query id is not a plain file name").
			WithType(ErrTypeQuery).
			WithTag("id", q.ID)
	}
	return nil
}

// Ray resolves the query into a normalized world-space ray.
func (q Query) Ray(cam camera.Camera) (geom.Ray, error) {
	switch {
	case q.Pixel != nil:
		return cam.RayThroughPixel(q.Pixel[0], q.Pixel[1])

	case q.Origin != nil && q.Direction != nil:
		if q.Direction.Len() == 0 {
			return geom.Ray{}, errors.New("ray direction is zero").
				WithType(ErrTypeQuery).
				WithTag("id", q.ID)
		}
		return geom.NewRay(*q.Origin, *q.Direction), nil

	default:
		return geom.Ray{}, errors.New("query has neither a pixel nor a ray").
			WithType(ErrTypeQuery).
			WithTag("id", q.ID)
	}
}

// LoadQueries reads a JSON array of queries. Queries without an ID are
// numbered by position.
func LoadQueries(path string) ([]Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading query file failed").
			WithTag("path", path).
			Wrap(err)
	}

	var queries []Query
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, errors.New("parsing query file failed").
			WithType(ErrTypeQuery).
			WithTag("path", path).
			Wrap(err)
	}
	for i := range queries {
		if queries[i].ID == "" {
			queries[i].ID = fmt.Sprintf("q%04d", i)
		}
		if err := queries[i].CheckID(); err != nil {
			return nil, errors.New("invalid query in file").
				WithType(ErrTypeQuery).
				WithTag("path", path).
				WithTag("index", i).
				Wrap(err)
		}
	}
	return queries, nil
}
