// Package mesh holds indexed triangle meshes together with the per-triangle and per-vertex normals
// and the vertex to triangle lookup used by renderers.
package mesh

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/kdmesh/spatialmath"
)

// Triangle is a triangle given as three indices into a vertex slice. The winding order defines the
// front face.
type Triangle [3]int

// Mesh is an indexed triangle mesh. It should not be mutated after New returns.
type Mesh struct {
	Vertices        []r3.Vector
	VertexNormals   []r3.Vector
	Triangles       []Triangle
	TriangleNormals []r3.Vector

	vertexTriangles [][]int
}

// New validates the triangle indices and computes the normals and the vertex to triangle map.
// Degenerate triangles are kept and get a zero normal.
func New(vertices []r3.Vector, triangles []Triangle) (*Mesh, error) {
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

	m := &Mesh{
		Vertices:        vertices,
		Triangles:       triangles,
		TriangleNormals: make([]r3.Vector, len(triangles)),
		VertexNormals:   make([]r3.Vector, len(vertices)),
		vertexTriangles: make([][]int, len(vertices)),
	}
	for i, tri := range triangles {
		n := spatialmath.PlaneNormal(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]])
		m.TriangleNormals[i] = n
		for _, idx := range tri {
			m.VertexNormals[idx] = m.VertexNormals[idx].Add(n)
			m.vertexTriangles[idx] = append(m.vertexTriangles[idx], i)
		}
	}
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = n.Normalize()
	}
	return m, nil
}

// NumVertices returns the number of vertices.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// NumTriangles returns the number of triangles.
func (m *Mesh) NumTriangles() int {
	return len(m.Triangles)
}

// TrianglePoints returns the three corners of triangle i.
func (m *Mesh) TrianglePoints(i int) (r3.Vector, r3.Vector, r3.Vector) {
	tri := m.Triangles[i]
	return m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
}

// Triangle3D returns triangle i as a geometric triangle.
func (m *Mesh) Triangle3D(i int) *spatialmath.Triangle {
	return spatialmath.NewTriangle(m.TrianglePoints(i))
}

// TrianglesOfVertex returns the indices of the triangles using vertex v, in ascending order. A
// duplicated index inside one triangle lists it once per use.
func (m *Mesh) TrianglesOfVertex(v int) []int {
	if v < 0 || v >= len(m.vertexTriangles) {
		return nil
	}
	return m.vertexTriangles[v]
}

// TrianglesOfVertices returns the distinct triangles touching any of the given vertices, in
// ascending order.
func (m *Mesh) TrianglesOfVertices(vertices []int) []int {
	var out []int
	for _, v := range vertices {
		out = append(out, m.TrianglesOfVertex(v)...)
	}
	out = lo.Uniq(out)
	slices.Sort(out)
	return out
}

// Bounds returns the box enclosing every vertex.
func (m *Mesh) Bounds() (*spatialmath.AABB, error) {
	return spatialmath.NewAABB(m.Vertices)
}

// SubMesh returns a new mesh made of the given triangles. Only the vertices they use are kept and
// they are renumbered in order of first use.
func (m *Mesh) SubMesh(triangleIndices []int) (*Mesh, error) {
	remap := make(map[int]int)
	var vertices []r3.Vector
	triangles := make([]Triangle, 0, len(triangleIndices))
	for _, ti := range lo.Uniq(triangleIndices) {
		if ti < 0 || ti >= len(m.Triangles) {
			return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "triangle %d out of range", ti)
		}
		var tri Triangle
		for k, idx := range m.Triangles[ti] {
			newIdx, ok := remap[idx]
			if !ok {
				newIdx = len(vertices)
				remap[idx] = newIdx
				vertices = append(vertices, m.Vertices[idx])
			}
			tri[k] = newIdx
		}
		triangles = append(triangles, tri)
	}
	return New(vertices, triangles)
}
