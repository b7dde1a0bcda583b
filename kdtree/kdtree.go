// Package kdtree implements a kd-tree over the vertices, and optionally the triangles, of a mesh.
// Nodes are split at the median vertex coordinate along their largest dimension. Ray and triangle
// queries walk the tree lazily, nearest node first.
package kdtree

import (
	"github.com/golang/geo/r3"

	"go.viam.com/kdmesh/logging"
	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
)

// DefaultLeafSize is the vertex count below which a node is not split further.
const DefaultLeafSize = 10

// Each node in the tree is either an internal node with exactly two children, or a leaf holding the
// indices of the geometry inside its box.
const (
	InternalNode = NodeType(iota)
	LeafNode
)

// NodeType represents the possible types of nodes in a kd-tree.
type NodeType uint8

// Node is a kd-tree node. Nodes are immutable once the tree is built.
type Node struct {
	box   *spatialmath.AABB
	left  *Node
	right *Node

	// vertices is non-nil exactly for leaves.
	vertices  []int
	triangles []int

	splitAxis int
	splitAt   float64

	id    int
	depth int
}

// Type returns whether the node is a leaf or an internal node.
func (n *Node) Type() NodeType {
	if n.IsLeaf() {
		return LeafNode
	}
	return InternalNode
}

// IsLeaf reports whether the node holds geometry rather than children.
func (n *Node) IsLeaf() bool {
	return n.vertices != nil
}

// Box returns the region of space covered by the node.
func (n *Node) Box() *spatialmath.AABB {
	return n.box
}

// Left returns the child on the min side of the split, nil for leaves.
func (n *Node) Left() *Node {
	return n.left
}

// Right returns the child on the max side of the split, nil for leaves.
func (n *Node) Right() *Node {
	return n.right
}

// Split returns the axis and coordinate the node was split at. It is meaningless for leaves.
func (n *Node) Split() (int, float64) {
	return n.splitAxis, n.splitAt
}

// Vertices returns the indices of the vertices inside a leaf, nil for internal nodes.
func (n *Node) Vertices() []int {
	return n.vertices
}

// Triangles returns the indices of the triangles overlapping a leaf. It is nil for internal nodes
// and for trees built without triangles.
func (n *Node) Triangles() []int {
	return n.triangles
}

// ID is the preorder index of the node, the root being 0.
func (n *Node) ID() int {
	return n.id
}

// Depth is the distance from the root, the root being at depth 0.
func (n *Node) Depth() int {
	return n.depth
}

// Tree is a kd-tree built over a vertex set and optionally the triangles using them. It is
// read-only after construction and safe for concurrent queries.
type Tree struct {
	root      *Node
	vertices  []r3.Vector
	triangles []mesh.Triangle
	logger    logging.Logger

	leafSize     int
	hasTriangles bool
	numNodes     int
}

// Root returns the root node, nil for an empty tree.
func (t *Tree) Root() *Node {
	if t == nil {
		return nil
	}
	return t.root
}

// NumVertices returns the number of indexed vertices.
func (t *Tree) NumVertices() int {
	return len(t.vertices)
}

// NumTriangles returns the number of indexed triangles.
func (t *Tree) NumTriangles() int {
	return len(t.triangles)
}

// NumNodes returns the number of nodes in the tree.
func (t *Tree) NumNodes() int {
	return t.numNodes
}

// HasTriangles reports whether leaves carry triangle index lists.
func (t *Tree) HasTriangles() bool {
	return t.hasTriangles
}

// LeafSize returns the vertex count below which nodes were not split.
func (t *Tree) LeafSize() int {
	return t.leafSize
}

// Vertex returns the position of vertex i.
func (t *Tree) Vertex(i int) r3.Vector {
	return t.vertices[i]
}
