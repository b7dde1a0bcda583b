package render

import (
	"image/color"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/kdmesh/kdtree"
	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
	"go.viam.com/kdmesh/utils"
)

// Tracer computes the color seen along a primary ray. Implementations must be safe for concurrent
// use since pixels are traced in parallel.
type Tracer interface {
	Trace(ray *spatialmath.Ray) color.RGBA
}

// NormalMode selects the normal used for shading a hit.
type NormalMode int

const (
	// Phong interpolates the vertex normals with the barycentric coordinates of the hit.
	Phong NormalMode = iota
	// Flat uses the normal of the hit triangle.
	Flat
)

// NormalModeFromString parses "phong" or "triangle", case-insensitively.
func NormalModeFromString(s string) (NormalMode, error) {
	switch strings.ToLower(s) {
	case "phong", "":
		return Phong, nil
	case "triangle", "flat":
		return Flat, nil
	}
	return Phong, errors.Errorf("unknown normal mode: %q", s)
}

func (m NormalMode) String() string {
	if m == Flat {
		return "triangle"
	}
	return "phong"
}

var background = color.RGBA{A: 255}

// TriangleHit is the nearest intersection of a ray with a set of triangles.
type TriangleHit struct {
	Triangle int
	Point    r3.Vector
	// UV are the barycentric coordinates of Point relative to the second and third corner.
	UV [2]float64
}

// ClosestHit returns the nearest front facing triangle of m among candidates hit by ray. Of hits
// at the same distance the last candidate wins.
func ClosestHit(m *mesh.Mesh, candidates []int, ray *spatialmath.Ray) (TriangleHit, bool) {
	var best TriangleHit
	bestDist := 0.
	found := false
	for _, ti := range candidates {
		p0, p1, p2 := m.TrianglePoints(ti)
		pt, uv, ok := ray.IntersectTriangle(p0, p1, p2)
		if !ok {
			continue
		}
		dist := pt.Sub(ray.Position()).Norm2()
		if !found || dist <= bestDist {
			best = TriangleHit{Triangle: ti, Point: pt, UV: uv}
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// shader turns triangle hits into gray levels lit from the camera.
type shader struct {
	mesh   *mesh.Mesh
	eye    r3.Vector
	normal NormalMode
}

func (s shader) normalAt(hit TriangleHit) r3.Vector {
	if s.normal == Flat {
		return s.mesh.TriangleNormals[hit.Triangle]
	}
	tri := s.mesh.Triangles[hit.Triangle]
	u, v := hit.UV[0], hit.UV[1]
	n := s.mesh.VertexNormals[tri[0]].Mul(1 - u - v).
		Add(s.mesh.VertexNormals[tri[1]].Mul(u)).
		Add(s.mesh.VertexNormals[tri[2]].Mul(v))
	return n.Normalize()
}

func (s shader) shade(hit TriangleHit) color.RGBA {
	level := utils.ClampU8(s.eye.Sub(hit.Point).Normalize().Dot(s.normalAt(hit)) * 255)
	return color.RGBA{R: level, G: level, B: level, A: 255}
}

// NaiveTracer tests every triangle of the mesh for every ray.
type NaiveTracer struct {
	shader
	all []int
}

// NewNaiveTracer returns a tracer for m lit from eye.
func NewNaiveTracer(m *mesh.Mesh, eye r3.Vector, mode NormalMode) *NaiveTracer {
	all := make([]int, m.NumTriangles())
	for i := range all {
		all[i] = i
	}
	return &NaiveTracer{shader: shader{mesh: m, eye: eye, normal: mode}, all: all}
}

// Trace implements Tracer.
func (t *NaiveTracer) Trace(ray *spatialmath.Ray) color.RGBA {
	hit, ok := ClosestHit(t.mesh, t.all, ray)
	if !ok {
		return background
	}
	return t.shade(hit)
}

// TreeTracer visits the leaves a ray crosses nearest first and shades the closest hit among the
// candidate triangles of the first leaf producing any hit. Candidates are the triangles listed by
// the leaf, or for point-only trees the triangles using one of the leaf vertices.
type TreeTracer struct {
	shader
	tree *kdtree.Tree
}

// NewTreeTracer returns a tracer for m walking tree, which must have been built over m.
func NewTreeTracer(tree *kdtree.Tree, m *mesh.Mesh, eye r3.Vector, mode NormalMode) (*TreeTracer, error) {
	if tree.NumVertices() != m.NumVertices() {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput,
			"tree indexes %d vertices but the mesh has %d", tree.NumVertices(), m.NumVertices())
	}
	if tree.HasTriangles() && tree.NumTriangles() != m.NumTriangles() {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput,
			"tree indexes %d triangles but the mesh has %d", tree.NumTriangles(), m.NumTriangles())
	}
	return &TreeTracer{shader: shader{mesh: m, eye: eye, normal: mode}, tree: tree}, nil
}

// Trace implements Tracer.
func (t *TreeTracer) Trace(ray *spatialmath.Ray) color.RGBA {
	for leaf := range t.tree.QueryRay(ray).LeavesOnly().All() {
		candidates := leaf.Triangles()
		if !t.tree.HasTriangles() {
			candidates = t.mesh.TrianglesOfVertices(leaf.Vertices())
		}
		if hit, ok := ClosestHit(t.mesh, candidates, ray); ok {
			return t.shade(hit)
		}
	}
	return background
}
