package config

import (
	"image"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/stretchr/testify/require"

	"martian-terrain/internal/camera"
	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
	"martian-terrain/internal/mesh"
	"martian-terrain/internal/octree"
)

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"mesh": "geo/mars-low.obj", "max_depth": 0, "nearest": true}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "geo/mars-low.obj", cfg.Mesh)
	require.Equal(t, 0, cfg.MaxDepth)
	require.True(t, cfg.Nearest)
	require.Equal(t, octree.DefaultMaxBuildDepth, cfg.MaxBuildDepth)
	require.Equal(t, -100.0, cfg.TMin)
	require.Equal(t, 100.0, cfg.TMax)
	require.Nil(t, cfg.Camera)
}

func TestLoadCamera(t *testing.T) {
	path := writeConfig(t, `{
		"mesh": "terrain.png",
		"heightmap_scale": {"spacing": 2, "height": 30},
		"camera": {"position": [0, 40, 60], "pitch": -30, "fov": 45, "width": 320}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2.0, cfg.Heightmap.Spacing)
	require.Equal(t, 30.0, cfg.Heightmap.HeightScale)

	cfg.Resolve(Flags{MaxDepth: -1})
	require.NotNil(t, cfg.Camera)
	require.Equal(t, 320, cfg.Camera.Width)
	require.Equal(t, cfg.RenderSize, cfg.Camera.Height)
	require.Equal(t, -30.0, cfg.Camera.Pitch)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"mesh": `))
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalid, errors.Type(err))
}

func TestResolveFlags(t *testing.T) {
	cfg := Default()
	cfg.Mesh = "terrain.obj"
	cfg.Workers = 0
	cfg.LogLevel = ""

	cfg.Resolve(Flags{
		BaseDir:  "/data/mars",
		PathFile: "route.mars",
		MaxDepth: 3,
		Nearest:  true,
	})

	require.Equal(t, "/data/mars/terrain.obj", cfg.Mesh)
	require.Equal(t, "/data/mars/route.mars", cfg.PathFile)
	require.Equal(t, "/data/mars/renders", cfg.OutputDir)
	require.Equal(t, 3, cfg.MaxDepth)
	require.True(t, cfg.Nearest)
	require.Equal(t, runtime.NumCPU(), cfg.Workers)
	require.Equal(t, logs.InfoLevel.String(), cfg.LogLevel)

	cfg.Resolve(Flags{MaxDepth: -1})
	require.Equal(t, 3, cfg.MaxDepth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "no mesh", modify: func(c *Config) { c.Mesh = "" }},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -2 }},
		{name: "empty window", modify: func(c *Config) { c.TMin, c.TMax = 5, 5 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Mesh = "terrain.obj"
			test.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalid, errors.Type(err))
		})
	}

	cfg := Default()
	cfg.Mesh = "terrain.obj"
	cfg.Camera = &camera.Camera{Width: 0, Height: 10}
	err := cfg.Validate()
	require.Error(t, err)
	require.Equal(t, camera.ErrTypeViewport, errors.Type(err))
}

func TestOctreeOptions(t *testing.T) {
	cfg := Default()
	cfg.MaxDepth = 4
	cfg.FailOnDepthLimit = true
	require.Equal(t, octree.Options{
		MaxDepth:         4,
		MaxBuildDepth:    octree.DefaultMaxBuildDepth,
		FailOnDepthLimit: true,
	}, cfg.OctreeOptions())
}

func TestPlacement(t *testing.T) {
	require.True(t, Placement{}.Transform().IsIdentity())

	path := writeConfig(t, `{"mesh": "terrain.obj", "placement": {"offset": [5, -2, 0], "yaw": 180, "scale": 0.5}}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	got := cfg.Placement.Transform().MulPoint(mathutil.V3(2, 4, 2))
	require.True(t, got.ApproxEqual(mathutil.V3(4, 0, -1), 1e-9), "got %v", got)
}

func TestFitWindowReachesLargeTerrain(t *testing.T) {
	m, err := mesh.FromHeightmap(image.NewGray(image.Rect(0, 0, 128, 128)), mesh.DefaultHeightmapOptions())
	require.NoError(t, err)

	cfg := Default()
	cfg.Mesh = "terrain.png"
	tree, err := octree.New(m, cfg.OctreeOptions())
	require.NoError(t, err)

	cam := camera.Overlooking(tree.Bounds(), 512, 512)
	ray, err := cam.RayThroughPixel(256, 256)
	require.NoError(t, err)
	require.False(t, tree.Search(ray, cfg.TMin, cfg.TMax).IsPresent(), "terrain lies beyond the fixed window")

	cfg.FitWindow(cam, tree.Bounds())
	require.NoError(t, cfg.Validate())
	require.True(t, tree.Search(ray, cfg.TMin, cfg.TMax).IsPresent())
	require.True(t, tree.SearchNearest(ray, cfg.TMin, cfg.TMax).IsPresent())
}

func TestFitWindowKeepsExplicitWindow(t *testing.T) {
	bounds := mustBounds(t, mathutil.V3(0, 0, 0), mathutil.V3(500, 10, 500))
	cam := camera.Overlooking(bounds, 64, 64)

	cfg, err := Load(writeConfig(t, `{"mesh": "terrain.obj", "t_max": 50}`))
	require.NoError(t, err)
	cfg.FitWindow(cam, bounds)
	require.Equal(t, 50.0, cfg.TMax)

	cfg = Default()
	cfg.Camera = &cam
	cfg.FitWindow(cam, bounds)
	require.Equal(t, 100.0, cfg.TMax)

	cfg = Default()
	cfg.FitWindow(cam, bounds)
	require.Greater(t, cfg.TMax, cam.Position.Sub(bounds.Center()).Len())
	require.Equal(t, -100.0, cfg.TMin)
}

func mustBounds(t *testing.T, points ...mathutil.Vec3) geom.Box {
	b, err := geom.BoundsOf(points)
	require.NoError(t, err)
	return b
}
