package kdtree

import (
	"container/heap"
	"iter"

	"github.com/golang/geo/r3"

	"go.viam.com/kdmesh/logging"
	"go.viam.com/kdmesh/spatialmath"
)

// NodeHit is a node reached by a query along with the distance at which the query met its box.
// Triangle queries report a distance of 0.
type NodeHit struct {
	Node     *Node
	Distance float64
}

// IsLeaf reports whether the hit node is a leaf.
func (h NodeHit) IsLeaf() bool {
	return h.Node.IsLeaf()
}

// Box returns the box of the hit node.
func (h NodeHit) Box() *spatialmath.AABB {
	return h.Node.Box()
}

// Vertices returns the vertex indices of a hit leaf.
func (h NodeHit) Vertices() []int {
	return h.Node.Vertices()
}

// Triangles returns the triangle indices of a hit leaf.
func (h NodeHit) Triangles() []int {
	return h.Node.Triangles()
}

// boxQuery tests a query shape against a node box. It returns the distance reported in NodeHit
// and the priority the box is queued at.
type boxQuery interface {
	intersect(box *spatialmath.AABB) (distance, priority float64, ok bool)
}

type rayQuery struct {
	ray *spatialmath.Ray
}

// intersect queues a box containing the ray origin at 0, where the ray is already inside it,
// rather than at the exit distance IntersectBox reports for it.
func (q rayQuery) intersect(box *spatialmath.AABB) (float64, float64, bool) {
	d, ok := q.ray.IntersectBox(box.Bounds())
	if !ok {
		return 0, 0, false
	}
	if box.ContainsPoint(q.ray.Position()) {
		return d, 0, true
	}
	return d, d, true
}

type triangleQuery struct {
	t0, t1, t2 r3.Vector
	normal     *r3.Vector
}

func (q triangleQuery) intersect(box *spatialmath.AABB) (float64, float64, bool) {
	return 0, 0, box.IntersectTriangle(q.t0, q.t1, q.t2, q.normal)
}

// pending is a frontier entry. Entries are ordered by priority, then distance, then insertion.
type pending struct {
	hit      NodeHit
	priority float64
	seq      uint64
}

type frontier []pending

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].priority != f[j].priority {
		return f[i].priority < f[j].priority
	}
	if f[i].hit.Distance != f[j].hit.Distance {
		return f[i].hit.Distance < f[j].hit.Distance
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(pending)) }

func (f *frontier) Pop() any {
	old := *f
	last := old[len(old)-1]
	old[len(old)-1] = pending{}
	*f = old[:len(old)-1]
	return last
}

// NodeIterator lazily yields the nodes whose box a query intersects, nearest first. Internal nodes
// are yielded before the nodes below them. An iterator is not safe for concurrent use, but any
// number of iterators may walk the same tree at once.
type NodeIterator struct {
	query  boxQuery
	queue  frontier
	seq    uint64
	logger logging.Logger

	leavesOnly  bool
	firstBranch bool
	started     bool
	done        bool
}

// QueryRay returns an iterator over the nodes whose box ray hits, ordered by the distance along the
// ray at which each box is entered. Boxes containing the ray origin come first; their NodeHit
// distance is where the ray exits them.
func (t *Tree) QueryRay(ray *spatialmath.Ray) *NodeIterator {
	return t.newNodeIterator(rayQuery{ray})
}

// QueryTriangle returns an iterator over the nodes whose box overlaps the triangle t0, t1, t2.
// normal may be nil, in which case it is computed from the corners.
func (t *Tree) QueryTriangle(t0, t1, t2 r3.Vector, normal *r3.Vector) *NodeIterator {
	if normal == nil {
		n := spatialmath.PlaneNormal(t0, t1, t2)
		normal = &n
	}
	return t.newNodeIterator(triangleQuery{t0, t1, t2, normal})
}

func (t *Tree) newNodeIterator(q boxQuery) *NodeIterator {
	it := &NodeIterator{query: q}
	if t == nil || t.root == nil {
		return it
	}
	it.logger = t.logger
	if d, p, ok := q.intersect(t.root.box); ok {
		it.push(t.root, d, p)
	}
	return it
}

// LeavesOnly restricts the iterator to leaves. It must be called before the first Next.
func (it *NodeIterator) LeavesOnly() *NodeIterator {
	if it.checkNotStarted("LeavesOnly") {
		it.leavesOnly = true
	}
	return it
}

// FirstBranchOnly makes the iterator follow only the nearest intersecting child of each node and
// stop after the first leaf. It must be called before the first Next.
func (it *NodeIterator) FirstBranchOnly() *NodeIterator {
	if it.checkNotStarted("FirstBranchOnly") {
		it.firstBranch = true
	}
	return it
}

func (it *NodeIterator) checkNotStarted(modifier string) bool {
	if it.started && it.logger != nil {
		it.logger.Warnw("ignoring iterator modifier applied after iteration started", "modifier", modifier)
	}
	return !it.started
}

// Next returns the next node, or false once the query is exhausted.
func (it *NodeIterator) Next() (NodeHit, bool) {
	it.started = true
	for !it.done && len(it.queue) > 0 {
		cur := heap.Pop(&it.queue).(pending).hit
		if cur.IsLeaf() {
			if it.firstBranch {
				it.done = true
			}
		} else {
			it.expand(cur.Node)
		}
		if it.leavesOnly && !cur.IsLeaf() {
			continue
		}
		return cur, true
	}
	it.queue = nil
	return NodeHit{}, false
}

// All returns the remaining nodes as a range-over-func sequence.
func (it *NodeIterator) All() iter.Seq[NodeHit] {
	return func(yield func(NodeHit) bool) {
		for hit, ok := it.Next(); ok; hit, ok = it.Next() {
			if !yield(hit) {
				return
			}
		}
	}
}

// expand pushes the children of node that the query intersects.
func (it *NodeIterator) expand(node *Node) {
	dl, pl, hitLeft := it.query.intersect(node.left.box)
	dr, pr, hitRight := it.query.intersect(node.right.box)

	switch {
	case !hitLeft && !hitRight:
		if it.logger != nil {
			it.logger.Warnw("query hits a node but neither of its children, skipping the branch",
				"node", node.id, "depth", node.depth, "box", node.box.String())
		}
	case it.firstBranch:
		if hitLeft && (!hitRight || pl < pr) {
			it.push(node.left, dl, pl)
		} else {
			it.push(node.right, dr, pr)
		}
	default:
		if hitLeft {
			it.push(node.left, dl, pl)
		}
		if hitRight {
			it.push(node.right, dr, pr)
		}
	}
}

func (it *NodeIterator) push(node *Node, distance, priority float64) {
	heap.Push(&it.queue, pending{hit: NodeHit{Node: node, Distance: distance}, priority: priority, seq: it.seq})
	it.seq++
}
