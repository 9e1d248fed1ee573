package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"

	"martian-terrain/internal/config"
	"martian-terrain/internal/mesh"
	"martian-terrain/internal/octree"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	meshFile := flag.String("mesh", "", "Terrain OBJ model or heightmap image")
	maxDepth := flag.Int("max-depth", -1, "Render/traversal depth (default: 5)")
	asJSON := flag.Bool("json", false, "Print tree statistics as JSON")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			logs.Fatal(err)
		}
	}
	if *meshFile == "" && flag.NArg() > 0 {
		*meshFile = flag.Arg(0)
	}
	cfg.Resolve(config.Flags{Mesh: *meshFile, MaxDepth: *maxDepth})
	if err := cfg.Validate(); err != nil {
		logs.Fatal(err)
	}
	logs.SetLevel(logs.ParseLevel(cfg.LogLevel))

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
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			logs.Fatal(err)
		}
		return
	}

	b := tree.Bounds()
	size := b.Size()
	fmt.Printf("Terrain: %s\n", m.Name)
	fmt.Printf("  Vertices: %d, Faces: %d\n", m.VertexCount(), len(m.Faces))
	fmt.Printf("  BBox: X[%.2f, %.2f] Y[%.2f, %.2f] Z[%.2f, %.2f]\n",
		b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])
	fmt.Printf("  Size: %.2f x %.2f x %.2f\n", size[0], size[1], size[2])

	fmt.Printf("Octree (render depth %d, build cap %d)\n", tree.MaxDepth(), cfg.MaxBuildDepth)
	fmt.Printf("  Nodes: %d, Leaves: %d (empty %d, multi-vertex %d)\n",
		stats.Nodes, stats.Leaves, stats.EmptyLeaves, stats.MultiVertexLeaves)
	fmt.Printf("  Deepest leaf: %d\n", stats.Depth)
	if stats.Truncated > 0 {
		fmt.Printf("  Truncated at build cap: %d\n", stats.Truncated)
	}

	// Node count and occupied nodes per depth
	nodes := map[int]int{}
	occupied := map[int]int{}
	tree.Walk(func(n *octree.Node) bool {
		nodes[n.Depth]++
		if len(n.Indices) > 0 {
			occupied[n.Depth]++
		}
		return true
	})
	depths := make([]int, 0, len(nodes))
	for d := range nodes {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	for _, d := range depths {
		marker := ""
		if d == tree.MaxDepth() {
			marker = "  <- render depth"
		}
		fmt.Printf("    depth %2d: %6d nodes, %6d occupied%s\n", d, nodes[d], occupied[d], marker)
	}
}
