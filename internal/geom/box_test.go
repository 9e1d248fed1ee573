package geom

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"

	"martian-terrain/internal/mathutil"
)

func unitBox() Box {
	return NewBox(mathutil.V3(0, 0, 0), mathutil.V3(1, 1, 1))
}

func TestBoxUnion(t *testing.T) {
	tests := []struct {
		name string
		a    Box
		b    Box
		min  mathutil.Vec3
		max  mathutil.Vec3
	}{
		{
			name: "disjoint",
			a:    unitBox(),
			b:    NewBox(mathutil.V3(2, 2, 2), mathutil.V3(3, 3, 3)),
			min:  mathutil.V3(0, 0, 0),
			max:  mathutil.V3(3, 3, 3),
		},
		{
			name: "nested",
			a:    NewBox(mathutil.V3(-5, -5, -5), mathutil.V3(5, 5, 5)),
			b:    unitBox(),
			min:  mathutil.V3(-5, -5, -5),
			max:  mathutil.V3(5, 5, 5),
		},
		{
			name: "mixed axes",
			a:    NewBox(mathutil.V3(0, -1, 3), mathutil.V3(1, 0, 4)),
			b:    NewBox(mathutil.V3(-2, 2, 0), mathutil.V3(-1, 5, 1)),
			min:  mathutil.V3(-2, -1, 0),
			max:  mathutil.V3(1, 5, 4),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			u := test.a.Union(test.b)
			require.Equal(t, test.min, u.Min)
			require.Equal(t, test.max, u.Max)

			for _, b := range []Box{test.a, test.b} {
				require.True(t, u.Contains(b.Min))
				require.True(t, u.Contains(b.Max))
				require.True(t, u.ContainsBox(b))
			}

			require.Equal(t, u, test.b.Union(test.a))
			require.Equal(t, u, Compose(test.a, test.b))
		})
	}
}

func TestCompose(t *testing.T) {
	require.Equal(t, Box{}, Compose())
	require.Equal(t, unitBox(), Compose(unitBox()))

	c := Compose(
		unitBox(),
		NewBox(mathutil.V3(4, 0, 0), mathutil.V3(5, 1, 1)),
		NewBox(mathutil.V3(0, -3, 0), mathutil.V3(1, -2, 1)),
	)
	require.Equal(t, mathutil.V3(0, -3, 0), c.Min)
	require.Equal(t, mathutil.V3(5, 1, 1), c.Max)
}

func TestBoxIntersect(t *testing.T) {
	box := NewBox(mathutil.V3(-1, -1, -1), mathutil.V3(1, 1, 1))

	tests := []struct {
		name   string
		ray    Ray
		t0, t1 float64
		hit    bool
	}{
		{
			name: "toward center",
			ray:  NewRay(mathutil.V3(0, 0, -5), mathutil.V3(0, 0, 1)),
			t0:   -100, t1: 100,
			hit: true,
		},
		{
			name: "diagonal toward center",
			ray:  NewRay(mathutil.V3(5, 5, 5), mathutil.V3(-1, -1, -1)),
			t0:   0, t1: 100,
			hit: true,
		},
		{
			name: "pointing away with positive window",
			ray:  NewRay(mathutil.V3(0, 0, -5), mathutil.V3(0, 0, -1)),
			t0:   0, t1: 100,
			hit: false,
		},
		{
			name: "pointing away with symmetric window",
			ray:  NewRay(mathutil.V3(0, 0, -5), mathutil.V3(0, 0, -1)),
			t0:   -100, t1: 100,
			hit: true,
		},
		{
			name: "parallel outside slab",
			ray:  NewRay(mathutil.V3(0, 3, -5), mathutil.V3(0, 0, 1)),
			t0:   -100, t1: 100,
			hit: false,
		},
		{
			name: "parallel inside slab",
			ray:  NewRay(mathutil.V3(0.5, 0.5, -5), mathutil.V3(0, 0, 1)),
			t0:   -100, t1: 100,
			hit: true,
		},
		{
			name: "window ends before box",
			ray:  NewRay(mathutil.V3(0, 0, -5), mathutil.V3(0, 0, 1)),
			t0:   0, t1: 3.9,
			hit: false,
		},
		{
			name: "window covers entry distance",
			ray:  NewRay(mathutil.V3(0, 0, -5), mathutil.V3(0, 0, 1)),
			t0:   3.9, t1: 4.1,
			hit: true,
		},
		{
			name: "grazing a face",
			ray:  NewRay(mathutil.V3(1, 0, -5), mathutil.V3(0, 0, 1)),
			t0:   -100, t1: 100,
			hit: true,
		},
		{
			name: "passing beside",
			ray:  NewRay(mathutil.V3(-5, 0, 0), mathutil.V3(1, 0, 1)),
			t0:   -100, t1: 100,
			hit: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.hit, box.Intersect(test.ray, test.t0, test.t1))
		})
	}
}

func TestBoxIntersectZeroDirection(t *testing.T) {
	box := unitBox()

	inside := Ray{Origin: mathutil.V3(0.5, 0.5, 0.5)}
	require.True(t, box.Intersect(inside, -1, 1))

	outside := Ray{Origin: mathutil.V3(2, 0.5, 0.5)}
	require.False(t, box.Intersect(outside, -1, 1))
}

func TestBoxIntersectRange(t *testing.T) {
	box := NewBox(mathutil.V3(-1, -1, -1), mathutil.V3(1, 1, 1))
	ray := NewRay(mathutil.V3(0, 0, -5), mathutil.V3(0, 0, 1))

	near, far, ok := box.IntersectRange(ray, -100, 100)
	require.True(t, ok)
	require.InDelta(t, 4.0, near, 1e-12)
	require.InDelta(t, 6.0, far, 1e-12)

	near, far, ok = box.IntersectRange(ray, 5, 100)
	require.True(t, ok)
	require.InDelta(t, 5.0, near, 1e-12)
	require.InDelta(t, 6.0, far, 1e-12)
}

func TestBoxOctants(t *testing.T) {
	box := NewBox(mathutil.V3(0, 0, 0), mathutil.V3(2, 4, 6))
	oct := box.Octants()

	require.Equal(t, NewBox(mathutil.V3(0, 0, 0), mathutil.V3(1, 2, 3)), oct[0])
	require.Equal(t, NewBox(mathutil.V3(1, 0, 0), mathutil.V3(2, 2, 3)), oct[1])
	require.Equal(t, NewBox(mathutil.V3(1, 0, 3), mathutil.V3(2, 2, 6)), oct[2])
	require.Equal(t, NewBox(mathutil.V3(0, 0, 3), mathutil.V3(1, 2, 6)), oct[3])
	for i := 0; i < 4; i++ {
		require.Equal(t, oct[i].Min.Add(mathutil.V3(0, 2, 0)), oct[i+4].Min)
		require.Equal(t, oct[i].Max.Add(mathutil.V3(0, 2, 0)), oct[i+4].Max)
	}

	require.Equal(t, box, Compose(oct[:]...))
}

func TestBoundsOf(t *testing.T) {
	_, err := BoundsOf(nil)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeEmptyPoints))

	b, err := BoundsOf([]mathutil.Vec3{
		mathutil.V3(0, 0, 0),
		mathutil.V3(5, -1, 0),
		mathutil.V3(-2, 3, 0),
		mathutil.V3(1, 1, 7),
	})
	require.NoError(t, err)
	require.Equal(t, mathutil.V3(-2, -1, 0), b.Min)
	require.Equal(t, mathutil.V3(5, 3, 7), b.Max)
}

func TestMaybePoint(t *testing.T) {
	var m MaybePoint
	require.False(t, m.IsPresent())
	require.Equal(t, "none", m.String())

	m.Set(mathutil.V3(1, 2, 3))
	p, ok := m.Get()
	require.True(t, ok)
	require.Equal(t, mathutil.V3(1, 2, 3), p)

	b, ok := m.Box(0.25)
	require.True(t, ok)
	require.True(t, b.Contains(p))

	m.Clear()
	require.Equal(t, None(), m)
	require.Equal(t, Some(p), MaybePoint{point: p, present: true})
}
