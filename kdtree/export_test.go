package kdtree

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
)

func TestTrianglesUnder(t *testing.T) {
	m := makeTerrain(t, 20)
	all := make([]int, m.NumTriangles())
	for i := range all {
		all[i] = i
	}

	meshTree, err := FromMesh(context.Background(), m)
	test.That(t, err, test.ShouldBeNil)
	pointTree, err := FromVertices(context.Background(), m.Vertices)
	test.That(t, err, test.ShouldBeNil)

	for _, tree := range []*Tree{meshTree, pointTree} {
		tris, err := tree.TrianglesUnder(tree.Root(), m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tris, test.ShouldResemble, all)
	}

	// a point-only tree returns every triangle touching a vertex of the leaf
	leaf, _ := pointTree.Leaves().Next()
	tris, err := pointTree.TrianglesUnder(leaf, m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tris, test.ShouldResemble, m.TrianglesOfVertices(leaf.Vertices()))

	// a mesh tree returns exactly the triangles listed by the leaf
	leaf, _ = meshTree.Leaves().Next()
	tris, err = meshTree.TrianglesUnder(leaf, m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tris, test.ShouldResemble, leaf.Triangles())
}

func TestExportNode(t *testing.T) {
	m := makeTerrain(t, 20)
	tree, err := FromMesh(context.Background(), m)
	test.That(t, err, test.ShouldBeNil)

	whole, err := tree.ExportNode(tree.Root(), m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, whole.NumTriangles(), test.ShouldEqual, m.NumTriangles())
	test.That(t, whole.NumVertices(), test.ShouldEqual, m.NumVertices())

	left := tree.Root().Left()
	part, err := tree.ExportNode(left, m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, part.NumTriangles(), test.ShouldBeLessThan, m.NumTriangles())
	test.That(t, part.NumTriangles(), test.ShouldBeGreaterThan, 0)

	// every exported vertex lies on a triangle overlapping the node box
	tris, err := tree.TrianglesUnder(left, m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, part.NumTriangles(), test.ShouldEqual, len(tris))
	for i, ti := range tris {
		p0, p1, p2 := m.TrianglePoints(ti)
		q0, q1, q2 := part.TrianglePoints(i)
		test.That(t, []r3.Vector{q0, q1, q2}, test.ShouldResemble, []r3.Vector{p0, p1, p2})
		test.That(t, left.Box().IntersectTriangle(q0, q1, q2, nil), test.ShouldBeTrue)
	}
}

func TestExportRejectsMismatchedMesh(t *testing.T) {
	m := makeTerrain(t, 10)
	tree, err := FromMesh(context.Background(), m)
	test.That(t, err, test.ShouldBeNil)

	other := makeTerrain(t, 11)
	_, err = tree.ExportNode(tree.Root(), other)
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)

	_, err = tree.TrianglesUnder(tree.Root(), nil)
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)

	sameVertices, err := mesh.New(m.Vertices, m.Triangles[:4])
	test.That(t, err, test.ShouldBeNil)
	_, err = tree.ExportNode(tree.Root(), sameVertices)
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)

	t.Run("nodes without triangles", func(t *testing.T) {
		cloud, err := mesh.New(m.Vertices, nil)
		test.That(t, err, test.ShouldBeNil)
		pointTree, err := FromVertices(context.Background(), m.Vertices)
		test.That(t, err, test.ShouldBeNil)
		_, err = pointTree.ExportNode(pointTree.Root(), cloud)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
