package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/kdmesh/config"
	"go.viam.com/kdmesh/kdtree"
	"go.viam.com/kdmesh/logging"
	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/render"
	"go.viam.com/kdmesh/spatialmath"
)

// RenderAction renders a mesh as configured by the config file and flags.
func RenderAction(c *cli.Context) error {
	logger := logging.Global().Sublogger("render")
	start := time.Now()

	cfg := config.Default()
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return err
		}
	}
	if c.IsSet(generalFlagMesh) {
		cfg.Mesh = c.String(generalFlagMesh)
	}
	if c.IsSet(generalFlagOut) {
		cfg.Output = c.String(generalFlagOut)
	}
	if cfg.Output == "" {
		cfg.Output = "render.png"
	}
	if c.IsSet(renderFlagTracer) {
		cfg.Render.Tracer = c.String(renderFlagTracer)
	}
	if c.IsSet(renderFlagNormalMode) {
		cfg.Render.NormalMode = c.String(renderFlagNormalMode)
	}
	if c.IsSet(indexFlagLeafSize) {
		cfg.Index.LeafSize = c.Int(indexFlagLeafSize)
	}
	if c.IsSet(indexFlagTriangles) {
		cfg.Index.Triangles = c.Bool(indexFlagTriangles)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := mesh.ReadFile(cfg.Mesh)
	if err != nil {
		return err
	}
	logger.Infow("loaded mesh", "path", cfg.Mesh, "vertices", m.NumVertices(),
		"triangles", m.NumTriangles(), "elapsed", time.Since(start))

	camera, err := cfg.Camera.Camera()
	if err != nil {
		return err
	}
	tracer, err := newTracer(c.Context, cfg, m, camera, logger)
	if err != nil {
		return err
	}
	img, err := render.Render(c.Context, tracer, camera)
	if err != nil {
		return err
	}
	logger.Infow("rendering done", "tracer", cfg.Render.Tracer, "elapsed", time.Since(start))

	if err := render.WriteImage(cfg.Output, img); err != nil {
		return err
	}
	printf(c, "wrote %s\n", cfg.Output)
	return nil
}

func newTracer(
	ctx context.Context,
	cfg *config.Config,
	m *mesh.Mesh,
	camera *render.Camera,
	logger logging.Logger,
) (render.Tracer, error) {
	mode, err := render.NormalModeFromString(cfg.Render.NormalMode)
	if err != nil {
		return nil, err
	}
	if cfg.Render.Tracer == config.TracerNaive {
		return render.NewNaiveTracer(m, camera.Position, mode), nil
	}

	start := time.Now()
	tree, err := buildTree(ctx, m, cfg.Index, logger)
	if err != nil {
		return nil, err
	}
	logger.Infow("built kd-tree", "nodes", tree.NumNodes(), "elapsed", time.Since(start))
	if cfg.Render.Tracer == config.TracerBoxes {
		return render.NewBoxTracer(tree, camera.Position), nil
	}
	return render.NewTreeTracer(tree, m, camera.Position, mode)
}

func buildTree(ctx context.Context, m *mesh.Mesh, idx config.IndexConfig, logger logging.Logger) (*kdtree.Tree, error) {
	if err := idx.Validate("index"); err != nil {
		return nil, err
	}
	opts := idx.Options(logger.Sublogger("kdtree"))
	if idx.Triangles {
		return kdtree.FromMesh(ctx, m, opts...)
	}
	return kdtree.FromVertices(ctx, m.Vertices, opts...)
}

// loadTree reads the mesh flag and builds the tree described by the index flags.
func loadTree(c *cli.Context, logger logging.Logger) (*mesh.Mesh, *kdtree.Tree, error) {
	m, err := mesh.ReadFile(c.String(generalFlagMesh))
	if err != nil {
		return nil, nil, err
	}
	tree, err := buildTree(c.Context, m, config.IndexConfig{
		LeafSize:  c.Int(indexFlagLeafSize),
		Triangles: c.Bool(indexFlagTriangles),
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return m, tree, nil
}

// StatsAction prints the shape of the kd-tree built over a mesh.
func StatsAction(c *cli.Context) error {
	m, tree, err := loadTree(c, logging.Global().Sublogger("stats"))
	if err != nil {
		return err
	}
	s := tree.Stats()

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Statistic", "Value"})
	t.AppendRows([]table.Row{
		{"Vertices", m.NumVertices()},
		{"Triangles", m.NumTriangles()},
		{"Leaf size", tree.LeafSize()},
		{"Nodes", s.Nodes},
		{"Leaves", s.Leaves},
		{"Max depth", s.MaxDepth},
		{"Oversized leaves", s.OversizedLeaves},
	})
	if err := appendDistribution(t, "Leaf vertices", s.LeafVertexCounts); err != nil {
		return err
	}
	if tree.HasTriangles() {
		if err := appendDistribution(t, "Leaf triangles", s.LeafTriangleCounts); err != nil {
			return err
		}
	}
	printf(c, "%s\n", t.Render())
	return nil
}

// appendDistribution adds the mean, median, standard deviation and maximum of counts.
func appendDistribution(t table.Writer, name string, counts []int) error {
	data := stats.LoadRawData(counts)
	mean, err := stats.Mean(data)
	if err != nil {
		return errors.Wrapf(err, "computing %s mean", name)
	}
	median, err := stats.Median(data)
	if err != nil {
		return errors.Wrapf(err, "computing %s median", name)
	}
	sd, err := stats.StandardDeviation(data)
	if err != nil {
		return errors.Wrapf(err, "computing %s deviation", name)
	}
	maxCount, err := stats.Max(data)
	if err != nil {
		return errors.Wrapf(err, "computing %s maximum", name)
	}
	t.AppendRows([]table.Row{
		{name + " (mean)", fmt.Sprintf("%.2f", mean)},
		{name + " (median)", fmt.Sprintf("%.1f", median)},
		{name + " (stddev)", fmt.Sprintf("%.2f", sd)},
		{name + " (max)", int(maxCount)},
	})
	return nil
}

// QueryAction lists the nodes a ray crosses.
func QueryAction(c *cli.Context) error {
	_, tree, err := loadTree(c, logging.Global().Sublogger("query"))
	if err != nil {
		return err
	}
	ray, err := rayFromFlags(c)
	if err != nil {
		return err
	}

	it := tree.QueryRay(ray)
	if c.Bool(queryFlagLeaves) {
		it = it.LeavesOnly()
	}
	if c.Bool(queryFlagFirstBranch) {
		it = it.FirstBranchOnly()
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Node", "Depth", "Leaf", "Distance", "Vertices", "Triangles", "Box"})
	n := 0
	for hit := range it.All() {
		t.AppendRow(table.Row{
			n, hit.Node.ID(), hit.Node.Depth(), hit.IsLeaf(), fmt.Sprintf("%.4f", hit.Distance),
			len(hit.Vertices()), len(hit.Triangles()), hit.Box().String(),
		})
		n++
	}
	if n == 0 {
		printf(c, "the ray misses the mesh\n")
		return nil
	}
	printf(c, "%s\n", t.Render())
	return nil
}

// ExportAction writes the sub-mesh under one node of a ray query, optionally rendering it.
func ExportAction(c *cli.Context) error {
	logger := logging.Global().Sublogger("export")
	m, tree, err := loadTree(c, logger)
	if err != nil {
		return err
	}
	ray, err := rayFromFlags(c)
	if err != nil {
		return err
	}

	index := c.Int(exportFlagIndex)
	if index < 0 {
		return errors.Errorf("--%s must not be negative, got %d", exportFlagIndex, index)
	}
	var node *kdtree.Node
	seen := 0
	for hit := range tree.QueryRay(ray).All() {
		if seen == index {
			node = hit.Node
			break
		}
		seen++
	}
	if node == nil {
		return errors.Errorf("the ray crosses %d nodes, cannot export node %d", seen, index)
	}

	sub, err := tree.ExportNode(node, m)
	if err != nil {
		return err
	}
	out := c.String(generalFlagOut)
	if err := mesh.WriteOFFFile(sub, out); err != nil {
		return err
	}
	logger.Debugw("exported node", "node", node.ID(), "depth", node.Depth(), "box", node.Box().String())
	printf(c, "wrote node %d (depth %d): %d vertices, %d triangles to %s\n",
		node.ID(), node.Depth(), sub.NumVertices(), sub.NumTriangles(), out)

	imgPath := c.String(exportFlagRender)
	if imgPath == "" {
		return nil
	}
	cfg := config.Default()
	if path := c.String(generalFlagConfig); path != "" {
		if cfg, err = config.Read(path); err != nil {
			return err
		}
	}
	camera, err := cfg.Camera.Camera()
	if err != nil {
		return err
	}
	mode, err := render.NormalModeFromString(cfg.Render.NormalMode)
	if err != nil {
		return err
	}
	img, err := render.Render(c.Context, render.NewNaiveTracer(sub, camera.Position, mode), camera)
	if err != nil {
		return err
	}
	if err := render.WriteImage(imgPath, img); err != nil {
		return err
	}
	printf(c, "wrote %s\n", imgPath)
	return nil
}

func rayFromFlags(c *cli.Context) (*spatialmath.Ray, error) {
	origin, err := parseVector(c.String(queryFlagOrigin))
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", queryFlagOrigin)
	}
	dir, err := parseVector(c.String(queryFlagDirection))
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", queryFlagDirection)
	}
	if dir.Norm2() == 0 {
		return nil, errors.Errorf("--%s must not be the zero vector", queryFlagDirection)
	}
	return spatialmath.NewRay(origin, dir.Normalize()), nil
}

// parseVector parses "x,y,z".
func parseVector(s string) (r3.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, errors.Errorf("%q does not follow the format: x,y,z", s)
	}
	var coords [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "parsing %q", s)
		}
		coords[i] = v
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func printf(c *cli.Context, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format, a...)
}
