package kdtree

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
)

func randomPoints(rnd *rand.Rand, n int, lo, hi float64) []r3.Vector {
	pts := make([]r3.Vector, n)
	for i := range pts {
		pts[i] = r3.Vector{
			X: lo + rnd.Float64()*(hi-lo),
			Y: lo + rnd.Float64()*(hi-lo),
			Z: lo + rnd.Float64()*(hi-lo),
		}
	}
	return pts
}

// makeTerrain returns an n by n heightfield over [0, 10]^2 with upward facing triangles.
func makeTerrain(t *testing.T, n int) *mesh.Mesh {
	t.Helper()
	step := 10 / float64(n-1)
	vertices := make([]r3.Vector, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x, y := float64(i)*step, float64(j)*step
			vertices = append(vertices, r3.Vector{X: x, Y: y, Z: 2 + math.Sin(x)*math.Cos(y)})
		}
	}
	var triangles []mesh.Triangle
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a := j*n + i
			triangles = append(triangles, mesh.Triangle{a, a + 1, a + n + 1}, mesh.Triangle{a, a + n + 1, a + n})
		}
	}
	m, err := mesh.New(vertices, triangles)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func buildFromVertices(t *testing.T, pts []r3.Vector, opts ...Option) *Tree {
	t.Helper()
	tree, err := FromVertices(context.Background(), pts, opts...)
	test.That(t, err, test.ShouldBeNil)
	return tree
}

// collectLeaves returns the leaves under node by plain recursion, left to right.
func collectLeaves(node *Node) []*Node {
	if node.IsLeaf() {
		return []*Node{node}
	}
	return append(collectLeaves(node.left), collectLeaves(node.right)...)
}

// checkNode recursively asserts the structural invariants of the subtree under node.
func checkNode(t *testing.T, tree *Tree, node *Node, ancestors []*spatialmath.AABB) {
	t.Helper()
	for _, a := range ancestors {
		test.That(t, a.ContainsBox(node.box), test.ShouldBeTrue)
	}
	if node.IsLeaf() {
		test.That(t, node.left, test.ShouldBeNil)
		test.That(t, node.right, test.ShouldBeNil)
		for _, v := range node.vertices {
			test.That(t, node.box.ContainsPoint(tree.Vertex(v)), test.ShouldBeTrue)
		}
		return
	}
	test.That(t, node.vertices, test.ShouldBeNil)
	test.That(t, node.triangles, test.ShouldBeNil)
	test.That(t, node.left, test.ShouldNotBeNil)
	test.That(t, node.right, test.ShouldNotBeNil)

	axis, at := node.Split()
	test.That(t, spatialmath.Component(node.left.box.Max(), axis), test.ShouldEqual, at)
	test.That(t, spatialmath.Component(node.right.box.Min(), axis), test.ShouldEqual, at)
	test.That(t, node.left.box.Min(), test.ShouldResemble, node.box.Min())
	test.That(t, node.right.box.Max(), test.ShouldResemble, node.box.Max())
	test.That(t, node.left.depth, test.ShouldEqual, node.depth+1)
	test.That(t, node.right.depth, test.ShouldEqual, node.depth+1)

	ancestors = append(ancestors, node.box)
	checkNode(t, tree, node.left, ancestors)
	checkNode(t, tree, node.right, ancestors)
}
