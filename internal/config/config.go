package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"

	"martian-terrain/internal/camera"
	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
	"martian-terrain/internal/mesh"
	"martian-terrain/internal/octree"
)

const ErrTypeInvalid = "config_invalid"

// Config holds all configurable paths, index settings and render settings.
type Config struct {
	// Paths
	BaseDir     string `json:"base_dir"`
	Mesh        string `json:"mesh"`
	Texture     string `json:"texture"`
	PathFile    string `json:"path_file"`
	OutputDir   string `json:"output_dir"`
	MetricsFile string `json:"metrics_file"`

	// Terrain and index
	Heightmap        mesh.HeightmapOptions `json:"heightmap_scale"`
	Placement        Placement             `json:"placement"`
	MaxDepth         int                   `json:"max_depth"`
	MaxBuildDepth    int                   `json:"max_build_depth"`
	FailOnDepthLimit bool                  `json:"fail_on_depth_limit"`

	// Picking
	TMin    float64 `json:"t_min"`
	TMax    float64 `json:"t_max"`
	Nearest bool    `json:"nearest"`

	// Camera is optional. When nil a camera overlooking the terrain is used.
	Camera *camera.Camera `json:"camera,omitempty"`

	// Render settings
	Render      bool `json:"render"`
	ShowTree    bool `json:"show_tree"`
	RenderSize  int  `json:"render_size"`
	Supersample int  `json:"supersample"`
	Workers     int  `json:"workers"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogIndent bool   `json:"log_indent"`

	// windowSet records that the config file gave t_min or t_max.
	windowSet bool
}

// Default returns the settings used when neither a config file nor a flag
// sets a value.
func Default() Config {
	return Config{
		Heightmap:     mesh.DefaultHeightmapOptions(),
		MaxDepth:      octree.DefaultMaxDepth,
		MaxBuildDepth: octree.DefaultMaxBuildDepth,
		TMin:          -100,
		TMax:          100,
		ShowTree:      true,
		RenderSize:    512,
		Supersample:   2,
		Workers:       runtime.NumCPU(),
		LogLevel:      logs.InfoLevel.String(),
	}
}

// Load reads a JSON config file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New("reading config failed").
			WithTag("path", path).
			Wrap(err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.New("parsing config failed").
			WithType(ErrTypeInvalid).
			WithTag("path", path).
			Wrap(err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err == nil {
		_, hasMin := keys["t_min"]
		_, hasMax := keys["t_max"]
		cfg.windowSet = hasMin || hasMax
	}
	return cfg, nil
}

// Resolve applies CLI flags, fills empty fields and resolves relative paths
// against BaseDir. CLI flags take priority when set.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.Mesh != "" {
		c.Mesh = flags.Mesh
	}
	if flags.Texture != "" {
		c.Texture = flags.Texture
	}
	if flags.PathFile != "" {
		c.PathFile = flags.PathFile
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.MetricsFile != "" {
		c.MetricsFile = flags.MetricsFile
	}
	if flags.MaxDepth >= 0 {
		c.MaxDepth = flags.MaxDepth
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Nearest {
		c.Nearest = true
	}
	if flags.Render {
		c.Render = true
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}

	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		for _, p := range []*string{&c.Mesh, &c.Texture, &c.PathFile, &c.OutputDir, &c.MetricsFile} {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(c.BaseDir, *p)
			}
		}
	}

	// Defaults for values a config file may have zeroed
	if c.MaxBuildDepth <= 0 {
		c.MaxBuildDepth = octree.DefaultMaxBuildDepth
	}
	if c.Heightmap.Spacing <= 0 {
		c.Heightmap.Spacing = 1
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = logs.InfoLevel.String()
	}
	if c.Camera != nil {
		if c.Camera.Width <= 0 {
			c.Camera.Width = c.RenderSize
		}
		if c.Camera.Height <= 0 {
			c.Camera.Height = c.RenderSize
		}
	}
}

// Validate reports settings that cannot produce a usable index.
func (c *Config) Validate() error {
	if c.Mesh == "" {
		return errors.New("no terrain mesh configured").
			WithType(ErrTypeInvalid)
	}
	if c.MaxDepth < 0 {
		return errors.New("max depth must not be negative").
			WithType(ErrTypeInvalid).
			WithTag("max_depth", c.MaxDepth)
	}
	if c.TMin >= c.TMax {
		return errors.New("ray window is empty").
			WithType(ErrTypeInvalid).
			WithTag("t_min", c.TMin).
			WithTag("t_max", c.TMax)
	}
	if c.Camera != nil {
		if err := c.Camera.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Placement positions the loaded terrain in the world: scaled, then turned
// around Y, then moved by Offset. A zero Scale means 1.
type Placement struct {
	Offset mathutil.Vec3 `json:"offset"`
	Yaw    float64       `json:"yaw"`
	Scale  float64       `json:"scale"`
}

// Transform returns the placement as an affine matrix.
func (p Placement) Transform() mathutil.Mat4 {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	rot := mathutil.FromMat3Translation(mathutil.RotY(mathutil.Deg2Rad(p.Yaw)), mathutil.Vec3{})
	move := mathutil.FromMat3Translation(mathutil.Mat3Identity(), p.Offset)
	return mathutil.Mat4Mul(move, mathutil.Mat4Mul(rot, mathutil.Mat4Scale(s)))
}

// FitWindow widens the ray window so picks from cam reach the far side of
// bounds. It only applies to the default overlooking camera: a configured
// camera or an explicit t_min/t_max keeps the window as given.
func (c *Config) FitWindow(cam camera.Camera, bounds geom.Box) {
	if c.Camera != nil || c.windowSet {
		return
	}
	reach := cam.Position.Sub(bounds.Center()).Len() + bounds.Size().Len()
	if reach > c.TMax {
		c.TMax = reach
	}
}

// OctreeOptions returns the build options for the terrain index.
func (c *Config) OctreeOptions() octree.Options {
	return octree.Options{
		MaxDepth:         c.MaxDepth,
		MaxBuildDepth:    c.MaxBuildDepth,
		FailOnDepthLimit: c.FailOnDepthLimit,
	}
}

// Flags holds CLI flag values that override config file settings. MaxDepth
// is ignored when negative since zero is a valid depth.
type Flags struct {
	BaseDir     string
	Mesh        string
	Texture     string
	PathFile    string
	OutputDir   string
	MetricsFile string
	MaxDepth    int
	Workers     int
	Nearest     bool
	Render      bool
	LogLevel    string
}
