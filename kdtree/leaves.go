package kdtree

import "iter"

// LeafIterator enumerates every leaf under a node depth first, left to right. It applies no query
// and is meant for exporting or inspecting whole subtrees.
type LeafIterator struct {
	stack []*Node
}

// NewLeafIterator returns an iterator over the leaves under node. A nil node yields nothing.
func NewLeafIterator(node *Node) *LeafIterator {
	it := &LeafIterator{}
	if node != nil {
		it.stack = append(it.stack, node)
	}
	return it
}

// Leaves returns an iterator over every leaf of the tree.
func (t *Tree) Leaves() *LeafIterator {
	return NewLeafIterator(t.Root())
}

// Next returns the next leaf, or false once every leaf was returned.
func (it *LeafIterator) Next() (*Node, bool) {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if n.IsLeaf() {
			return n, true
		}
		it.stack = append(it.stack, n.right, n.left)
	}
	return nil, false
}

// All returns the remaining leaves as a range-over-func sequence.
func (it *LeafIterator) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n, ok := it.Next(); ok; n, ok = it.Next() {
			if !yield(n) {
				return
			}
		}
	}
}
