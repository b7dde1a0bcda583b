package kdtree

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
	// OversizedLeaves counts leaves holding at least LeafSize vertices because no split separated
	// them.
	OversizedLeaves int
	// LeafVertexCounts and LeafTriangleCounts list per-leaf sizes, leaves in left to right order.
	LeafVertexCounts   []int
	LeafTriangleCounts []int
}

// Stats walks the tree and returns its statistics.
func (t *Tree) Stats() Stats {
	s := Stats{Nodes: t.numNodes}
	for leaf := range t.Leaves().All() {
		s.Leaves++
		if leaf.depth > s.MaxDepth {
			s.MaxDepth = leaf.depth
		}
		if len(leaf.vertices) >= t.leafSize {
			s.OversizedLeaves++
		}
		s.LeafVertexCounts = append(s.LeafVertexCounts, len(leaf.vertices))
		if t.hasTriangles {
			s.LeafTriangleCounts = append(s.LeafTriangleCounts, len(leaf.triangles))
		}
	}
	return s
}
