package kdtree

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
)

// VerticesUnder returns the sorted vertex indices held by the leaves under node.
func VerticesUnder(node *Node) []int {
	var out []int
	for leaf := range NewLeafIterator(node).All() {
		out = append(out, leaf.vertices...)
	}
	slices.Sort(out)
	return out
}

// TrianglesUnder returns the sorted, distinct triangle indices under node. Trees built with
// triangles use their leaf lists. Point-only trees collect the triangles of m using any vertex
// under node.
func (t *Tree) TrianglesUnder(node *Node, m *mesh.Mesh) ([]int, error) {
	if err := t.checkMesh(m); err != nil {
		return nil, err
	}
	if !t.hasTriangles {
		return m.TrianglesOfVertices(VerticesUnder(node)), nil
	}
	var out []int
	for leaf := range NewLeafIterator(node).All() {
		out = append(out, leaf.triangles...)
	}
	out = lo.Uniq(out)
	slices.Sort(out)
	return out, nil
}

// ExportNode returns the part of m under node as a standalone mesh.
func (t *Tree) ExportNode(node *Node, m *mesh.Mesh) (*mesh.Mesh, error) {
	tris, err := t.TrianglesUnder(node, m)
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, errors.Errorf("node %d holds no triangles", node.ID())
	}
	return m.SubMesh(tris)
}

func (t *Tree) checkMesh(m *mesh.Mesh) error {
	if m == nil {
		return errors.Wrap(spatialmath.ErrInvalidInput, "nil mesh")
	}
	if m.NumVertices() != t.NumVertices() {
		return errors.Wrapf(spatialmath.ErrInvalidInput,
			"mesh has %d vertices but the tree indexes %d", m.NumVertices(), t.NumVertices())
	}
	if t.hasTriangles && m.NumTriangles() != t.NumTriangles() {
		return errors.Wrapf(spatialmath.ErrInvalidInput,
			"mesh has %d triangles but the tree indexes %d", m.NumTriangles(), t.NumTriangles())
	}
	return nil
}
