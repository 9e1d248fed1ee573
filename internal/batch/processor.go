package batch

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"

	"martian-terrain/internal/camera"
	"martian-terrain/internal/geom"
	"martian-terrain/internal/mathutil"
	"martian-terrain/internal/mesh"
	"martian-terrain/internal/octree"
	"martian-terrain/internal/raster"
	"martian-terrain/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	RunID   string
	Camera  camera.Camera
	TMin    float64
	TMax    float64
	Nearest bool
	Workers int

	// Rendering is optional. Mesh is needed to draw terrain.
	Render      bool
	ShowTree    bool
	Mesh        *mesh.Mesh
	TexResolver texture.Resolver
	TexturePath string
	OutputDir   string
	Supersample int

	// ProgressInterval is how often progress is logged. Zero disables it.
	ProgressInterval time.Duration
}

// Result holds the outcome of one pick.
type Result struct {
	ID       string         `json:"id"`
	Hit      bool           `json:"hit"`
	Point    *mathutil.Vec3 `json:"point,omitempty"`
	Struck   int            `json:"struck_nodes"`
	Image    string         `json:"image,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
	Error    string         `json:"error,omitempty"`
}

// Run answers all queries against tree using a worker pool. Results keep
// the order of queries. When ctx is canceled the remaining queries are
// marked as failed and ctx.Err() is returned with the partial results.
func Run(ctx context.Context, cfg Config, tree *octree.Tree, queries []Query) ([]Result, error) {
	total := len(queries)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.ProgressInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						logs.WithTag("run_id", cfg.RunID).
							WithTag("processed", p).
							WithTag("total", total).
							WithTag("rate", rate).
							Info("batch progress")
					}
				}
			}
		}()
	}

	// Worker pool
	queryChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queryChan {
				if ctx.Err() != nil {
					results[idx] = Result{ID: queries[idx].ID, Error: ctx.Err().Error()}
					continue
				}
				results[idx] = processQuery(cfg, tree, queries[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range queries {
		queryChan <- i
	}
	close(queryChan)

	wg.Wait()
	close(done)

	return results, ctx.Err()
}

func processQuery(cfg Config, tree *octree.Tree, q Query) Result {
	start := time.Now()
	res := Result{ID: q.ID}

	ray, err := q.Ray(cfg.Camera)
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	var hit geom.MaybePoint
	if cfg.Nearest {
		hit = tree.SearchNearest(ray, cfg.TMin, cfg.TMax)
	} else {
		hit = tree.Search(ray, cfg.TMin, cfg.TMax)
	}
	if p, ok := hit.Get(); ok {
		res.Hit = true
		res.Point = &p
	}

	struck := tree.Struck(ray, cfg.TMin, cfg.TMax)
	res.Struck = len(struck)
	res.Duration = time.Since(start)

	if !cfg.Render {
		return res
	}
	if err := q.CheckID(); err != nil {
		res.Error = err.Error()
		return res
	}

	scene := raster.Scene{
		Mesh:     cfg.Mesh,
		Tree:     tree,
		Struck:   struck,
		Selected: hit,
	}
	if cfg.TexResolver != nil {
		scene.Texture = cfg.TexResolver.Resolve(cfg.TexturePath)
	}

	img, err := raster.Render(scene, raster.Options{
		Camera:      cfg.Camera,
		Supersample: cfg.Supersample,
		ShowTree:    cfg.ShowTree,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}

	outPath := filepath.Join(cfg.OutputDir, q.ID+".webp")
	if err := raster.WriteWebP(outPath, img); err != nil {
		logs.WithTag("run_id", cfg.RunID).
			WithTag("query", q.ID).
			Warn(err)
		res.Error = err.Error()
		return res
	}
	res.Image = filepath.Base(outPath)
	return res
}
