package kdtree

import (
	"context"
	"math"
	"slices"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/kdmesh/logging"
	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
	"go.viam.com/kdmesh/utils"
)

// FromVertices builds a point-only tree over vertices.
func FromVertices(ctx context.Context, vertices []r3.Vector, opts ...Option) (*Tree, error) {
	return BuildIndex(ctx, vertices, nil, opts...)
}

// FromMesh builds a tree over the vertices of m whose leaves also list the triangles of m
// overlapping them.
func FromMesh(ctx context.Context, m *mesh.Mesh, opts ...Option) (*Tree, error) {
	if m == nil {
		return nil, errors.Wrap(spatialmath.ErrInvalidInput, "cannot build a tree from a nil mesh")
	}
	triangles := m.Triangles
	if triangles == nil {
		triangles = []mesh.Triangle{}
	}
	return BuildIndex(ctx, m.Vertices, triangles, opts...)
}

// BuildIndex builds a tree over vertices. If triangles is nil the tree only indexes vertices,
// otherwise every leaf also lists the triangles whose separating axis test against the leaf box
// succeeds, so a triangle straddling a split plane belongs to several leaves.
//
// Nodes holding fewer vertices than the leaf size become leaves. Other nodes are split along their
// largest dimension at the median vertex coordinate, vertices strictly below the median going
// left. When the median is also the smallest coordinate the split moves to the next distinct
// coordinate. Axes without two distinct coordinates are skipped in decreasing extent order, and if
// none remains the node stays an oversized leaf.
func BuildIndex(ctx context.Context, vertices []r3.Vector, triangles []mesh.Triangle, opts ...Option) (*Tree, error) {
	o := defaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	if len(vertices) == 0 {
		return nil, errors.Wrap(spatialmath.ErrInvalidInput, "cannot build a tree without vertices")
	}
	for i, v := range vertices {
		if !spatialmath.IsFinite(v) {
			return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "vertex %d is not finite: %v", i, v)
		}
	}
	for i, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Wrapf(spatialmath.ErrInvalidInput,
					"triangle %d references vertex %d, only %d vertices", i, idx, len(vertices))
			}
		}
	}

	box, err := spatialmath.NewAABB(vertices)
	if err != nil {
		return nil, err
	}

	b := &builder{
		vertices:  vertices,
		triangles: triangles,
		opts:      o,
		logger:    o.logger,
	}
	vertIdx := make([]int, len(vertices))
	for i := range vertIdx {
		vertIdx[i] = i
	}
	var triIdx []int
	if triangles != nil {
		triIdx = make([]int, len(triangles))
		b.normals = make([]r3.Vector, len(triangles))
		for i, tri := range triangles {
			triIdx[i] = i
			b.normals[i] = spatialmath.PlaneNormal(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]])
		}
	}

	root, err := b.build(ctx, box, vertIdx, triIdx, 0)
	if err != nil {
		return nil, err
	}

	tree := &Tree{
		root:         root,
		vertices:     vertices,
		triangles:    triangles,
		logger:       o.logger,
		leafSize:     o.leafSize,
		hasTriangles: triangles != nil,
		numNodes:     assignIDs(root),
	}
	o.logger.Debugw("built kd-tree",
		"vertices", len(vertices), "triangles", len(triangles), "nodes", tree.numNodes, "leafSize", o.leafSize)
	return tree, nil
}

type builder struct {
	vertices  []r3.Vector
	triangles []mesh.Triangle
	normals   []r3.Vector
	opts      buildOptions
	logger    logging.Logger
}

// build recursively constructs the subtree covering box. verts and tris are owned by the call.
func (b *builder) build(ctx context.Context, box *spatialmath.AABB, verts, tris []int, depth int) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(verts) < b.opts.leafSize {
		return newLeaf(box, verts, tris, depth), nil
	}

	axis, median, left, right, ok := b.partition(box, verts)
	if !ok {
		if len(verts) > 1 {
			b.logger.Debugw("no axis separates the vertices, keeping an oversized leaf",
				"vertices", len(verts), "depth", depth, "box", box.String())
		}
		return newLeaf(box, verts, tris, depth), nil
	}

	leftBox, rightBox, err := box.Split(axis, median)
	if err != nil {
		if b.opts.strict {
			return nil, errors.Wrapf(err, "splitting node at depth %d", depth)
		}
		b.logger.Errorw("failed to split node, keeping it as a leaf", "error", err, "depth", depth)
		return newLeaf(box, verts, tris, depth), nil
	}

	node := &Node{
		box:       box,
		splitAxis: axis,
		splitAt:   median,
		depth:     depth,
	}
	leftTris := b.trianglesIn(leftBox, tris)
	rightTris := b.trianglesIn(rightBox, tris)
	buildLeft := func(ctx context.Context) error {
		child, err := b.build(ctx, leftBox, left, leftTris, depth+1)
		node.left = child
		return err
	}
	buildRight := func(ctx context.Context) error {
		child, err := b.build(ctx, rightBox, right, rightTris, depth+1)
		node.right = child
		return err
	}

	if depth < b.opts.parallelDepth {
		if _, err := utils.RunInParallel(ctx, []utils.SimpleFunc{buildLeft, buildRight}); err != nil {
			return nil, err
		}
		return node, nil
	}
	if err := buildLeft(ctx); err != nil {
		return nil, err
	}
	if err := buildRight(ctx); err != nil {
		return nil, err
	}
	return node, nil
}

// partition splits verts at the median coordinate along the largest axis of box. When the median
// equals the smallest coordinate the min side would be empty, so the split moves up to the next
// distinct coordinate. Axes along which every vertex shares one coordinate are skipped in favor of
// the next largest.
func (b *builder) partition(box *spatialmath.AABB, verts []int) (int, float64, []int, []int, bool) {
	coords := make([]float64, len(verts))
	for _, axis := range splitAxes(box) {
		for i, v := range verts {
			coords[i] = spatialmath.Component(b.vertices[v], axis)
		}
		// coords is sorted by Median
		at := utils.Median(coords...)
		if at == coords[0] {
			next, _ := slices.BinarySearch(coords, math.Nextafter(at, math.Inf(1)))
			if next == len(coords) {
				continue
			}
			at = coords[next]
		}

		left := make([]int, 0, len(verts)/2)
		right := make([]int, 0, len(verts)-len(verts)/2)
		for _, v := range verts {
			if spatialmath.Component(b.vertices[v], axis) < at {
				left = append(left, v)
			} else {
				right = append(right, v)
			}
		}
		return axis, at, left, right, true
	}
	return 0, 0, nil, nil, false
}

// splitAxes returns the axes ordered by decreasing extent of box, ties keeping x before y before z.
func splitAxes(box *spatialmath.AABB) [3]int {
	axes := [3]int{spatialmath.AxisX, spatialmath.AxisY, spatialmath.AxisZ}
	sort.SliceStable(axes[:], func(i, j int) bool {
		return box.Extent(axes[i]) > box.Extent(axes[j])
	})
	return axes
}

// trianglesIn returns the triangles of tris overlapping box, nil for point-only trees.
func (b *builder) trianglesIn(box *spatialmath.AABB, tris []int) []int {
	if tris == nil {
		return nil
	}
	out := make([]int, 0, len(tris))
	for _, ti := range tris {
		p0, p1, p2 := b.vertices[b.triangles[ti][0]], b.vertices[b.triangles[ti][1]], b.vertices[b.triangles[ti][2]]
		if box.IntersectTriangle(p0, p1, p2, &b.normals[ti]) {
			out = append(out, ti)
		}
	}
	return out
}

func newLeaf(box *spatialmath.AABB, verts, tris []int, depth int) *Node {
	if verts == nil {
		verts = []int{}
	}
	return &Node{
		box:       box,
		vertices:  verts,
		triangles: tris,
		depth:     depth,
	}
}

// assignIDs numbers the nodes in preorder and returns the node count.
func assignIDs(root *Node) int {
	next := 0
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.id = next
		next++
		if !n.IsLeaf() {
			stack = append(stack, n.right, n.left)
		}
	}
	return next
}
