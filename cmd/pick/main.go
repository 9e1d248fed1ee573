package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/encoding/json"

	"martian-terrain/internal/batch"
	"martian-terrain/internal/camera"
	"martian-terrain/internal/config"
	"martian-terrain/internal/mesh"
	"martian-terrain/internal/octree"
	"martian-terrain/internal/path"
	"martian-terrain/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	dataDir := flag.String("data", "", "Base directory for relative paths")
	meshFile := flag.String("mesh", "", "Terrain OBJ model or heightmap image")
	textureFile := flag.String("texture", "", "Color image draped over the terrain")
	queryFile := flag.String("queries", "", "JSON file with pick queries")
	px := flag.Float64("px", -1, "Pick the pixel at this X (with -py)")
	py := flag.Float64("py", -1, "Pick the pixel at this Y (with -px)")
	pathFile := flag.String("path", "", "Append hits to this .mars path file")
	edit := flag.Bool("edit", false, "Treat hits as select/replace pairs on the path")
	outputDir := flag.String("output", "", "Output directory for renders and the report (default: renders)")
	metricsFile := flag.String("metrics", "", "Write Prometheus metrics to this textfile")
	maxDepth := flag.Int("max-depth", -1, "Render/traversal depth (default: 5)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	nearest := flag.Bool("nearest", false, "Select the hit closest along the ray")
	render := flag.Bool("render", false, "Write a WebP debug view per query")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warning, error)")

	flag.Parse()

	// Load config
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			logs.Fatal(err)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		BaseDir:     *dataDir,
		Mesh:        *meshFile,
		Texture:     *textureFile,
		PathFile:    *pathFile,
		OutputDir:   *outputDir,
		MetricsFile: *metricsFile,
		MaxDepth:    *maxDepth,
		Workers:     *workers,
		Nearest:     *nearest,
		Render:      *render,
		LogLevel:    *logLevel,
	})
	if err := cfg.Validate(); err != nil {
		logs.Fatal(err)
	}

	setupLogs(cfg)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	// Load terrain and build the index
	m, err := mesh.Load(cfg.Mesh, cfg.Heightmap)
	if err != nil {
		logs.Fatal(err)
	}
	if t := cfg.Placement.Transform(); !t.IsIdentity() {
		m.Transform(t)
	}

	tree, err := octree.New(m, cfg.OctreeOptions())
	if err != nil {
		logs.Fatal(err)
	}
	stats := tree.Stats()
	logs.WithTag("mesh", m.Name).
		WithTag("vertices", stats.Vertices).
		WithTag("nodes", stats.Nodes).
		WithTag("depth", stats.Depth).
		Info("terrain index built")

	cam := camera.Overlooking(tree.Bounds(), cfg.RenderSize, cfg.RenderSize)
	if cfg.Camera != nil {
		cam = *cfg.Camera
	}
	cfg.FitWindow(cam, tree.Bounds())
	logs.WithTag("t_min", cfg.TMin).
		WithTag("t_max", cfg.TMax).
		Info("ray window")

	queries, err := loadQueries(*queryFile, *px, *py)
	if err != nil {
		logs.Fatal(err)
	}

	runID := batch.NewRunID()
	var texCache *texture.Cache
	if cfg.Texture != "" {
		texCache = texture.NewCache()
	}

	fmt.Printf("Terrain: %s (%d vertices, %d faces)\n", m.Name, m.VertexCount(), len(m.Faces))
	fmt.Printf("Queries: %d, Workers: %d, Policy: %s\n", len(queries), cfg.Workers, policy(cfg.Nearest))
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	batchCfg := batch.Config{
		RunID:            runID,
		Camera:           cam,
		TMin:             cfg.TMin,
		TMax:             cfg.TMax,
		Nearest:          cfg.Nearest,
		Workers:          cfg.Workers,
		Render:           cfg.Render,
		ShowTree:         cfg.ShowTree,
		Mesh:             m,
		TexturePath:      cfg.Texture,
		OutputDir:        cfg.OutputDir,
		Supersample:      cfg.Supersample,
		ProgressInterval: 2 * time.Second,
	}
	if texCache != nil {
		batchCfg.TexResolver = texCache
	}

	results, err := batch.Run(ctx, batchCfg, tree, queries)
	if err != nil {
		logs.WithTag("run_id", runID).Warn(err)
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
			fmt.Printf("  %-12s error: %s\n", r.ID, r.Error)
		case r.Hit:
			fmt.Printf("  %-12s hit   %8.3f %8.3f %8.3f\n", r.ID, r.Point[0], r.Point[1], r.Point[2])
		default:
			fmt.Printf("  %-12s miss\n", r.ID)
		}
	}
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.3fs\n", time.Since(start).Seconds())

	if cfg.PathFile != "" {
		if err := updatePath(cfg.PathFile, results, *edit); err != nil {
			logs.Warn(err)
			failed++
		}
	}

	reportPath := filepath.Join(cfg.OutputDir, "report-"+runID+".json")
	if err := batch.WriteReport(reportPath, batch.NewReport(runID, m.Name, cfg.Nearest, start, results)); err != nil {
		logs.Warn(err)
	} else {
		fmt.Printf("Report: %s\n", reportPath)
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			logs.Warn(errors.New("writing metrics textfile failed").
				WithTag("path", cfg.MetricsFile).
				Wrap(err))
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func setupLogs(cfg config.Config) {
	logs.SetLevel(logs.ParseLevel(cfg.LogLevel))
	logs.Encoder = json.Marshal
	if cfg.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal
}

func loadQueries(queryFile string, px, py float64) ([]batch.Query, error) {
	if queryFile != "" {
		return batch.LoadQueries(queryFile)
	}
	if px >= 0 && py >= 0 {
		return []batch.Query{batch.PixelQuery("pixel", px, py)}, nil
	}
	return nil, errors.New("nothing to pick: use -queries or -px/-py").
		WithType(batch.ErrTypeQuery)
}

func policy(nearest bool) string {
	if nearest {
		return "nearest"
	}
	return "order"
}

// updatePath appends every hit to the path file. In edit mode hits come in
// pairs: the first selects an existing path point and the second replaces it.
func updatePath(filename string, results []batch.Result, edit bool) error {
	p, err := path.LoadOrNew(filename)
	if err != nil {
		return err
	}

	var hits []batch.Result
	for _, r := range results {
		if r.Hit {
			hits = append(hits, r)
		}
	}

	if !edit {
		for _, r := range hits {
			p.Append(*r.Point)
		}
	} else {
		for i := 0; i+1 < len(hits); i += 2 {
			idx := p.Find(*hits[i].Point, path.DefaultTolerance)
			if idx < 0 {
				logs.WithTag("query", hits[i].ID).Warn("picked point is not on the path")
				continue
			}
			if err := p.Replace(idx, *hits[i+1].Point); err != nil {
				return err
			}
			logs.WithTag("index", idx).
				WithTag("query", hits[i+1].ID).
				Info("path point replaced")
		}
	}

	if err := p.Save(filename); err != nil {
		return err
	}
	logs.WithTag("path", filename).
		WithTag("points", p.Len()).
		Info("path saved")
	return nil
}
