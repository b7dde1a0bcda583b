package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis aligned bounding box defined by its min and max corners. A box with zero extent along
// one or more axes is valid.
type AABB struct {
	bounds [2]r3.Vector
	dim    r3.Vector
	center r3.Vector
}

// NewAABB returns the tightest box enclosing all of the given points.
func NewAABB(points []r3.Vector) (*AABB, error) {
	if len(points) == 0 {
		return nil, newEmptyPointSetError()
	}
	lo, hi := points[0], points[0]
	for _, pt := range points[1:] {
		lo = VectorMin(lo, pt)
		hi = VectorMax(hi, pt)
	}
	return newAABB(lo, hi), nil
}

// NewAABBFromBounds instantiates a box from its min and max corners.
func NewAABBFromBounds(min, max r3.Vector) (*AABB, error) {
	if min.X > max.X || min.Y > max.Y || min.Z > max.Z {
		return nil, newInvertedBoundsError(min, max)
	}
	return newAABB(min, max), nil
}

func newAABB(min, max r3.Vector) *AABB {
	return &AABB{
		bounds: [2]r3.Vector{min, max},
		dim:    max.Sub(min),
		center: min.Add(max).Mul(0.5),
	}
}

// Bounds returns the min and max corners of the box.
func (b *AABB) Bounds() [2]r3.Vector {
	return b.bounds
}

// Min returns the min corner of the box.
func (b *AABB) Min() r3.Vector {
	return b.bounds[0]
}

// Max returns the max corner of the box.
func (b *AABB) Max() r3.Vector {
	return b.bounds[1]
}

// Dim returns the extent of the box along each axis.
func (b *AABB) Dim() r3.Vector {
	return b.dim
}

// Center returns the center point of the box.
func (b *AABB) Center() r3.Vector {
	return b.center
}

// Extent returns the size of the box along the given axis.
func (b *AABB) Extent(axis int) float64 {
	return Component(b.dim, axis)
}

// Width is the extent along x.
func (b *AABB) Width() float64 {
	return b.dim.X
}

// Height is the extent along y.
func (b *AABB) Height() float64 {
	return b.dim.Y
}

// Length is the extent along z.
func (b *AABB) Length() float64 {
	return b.dim.Z
}

// LargestDim returns the axis along which the box is largest. Ties prefer x over y and z, and y over z.
func (b *AABB) LargestDim() int {
	if b.Width() >= b.Height() && b.Width() >= b.Length() {
		return AxisX
	}
	if b.Height() >= b.Length() {
		return AxisY
	}
	return AxisZ
}

// Split cuts the box in two along axis at the given coordinate. The left box keeps the min side and the
// right box keeps the max side, so that left.Max()[axis] == right.Min()[axis] == at.
func (b *AABB) Split(axis int, at float64) (*AABB, *AABB, error) {
	if axis < AxisX || axis > AxisZ {
		return nil, nil, newBadAxisError(axis)
	}
	lo, hi := Component(b.bounds[0], axis), Component(b.bounds[1], axis)
	if at < lo || at > hi || math.IsNaN(at) {
		return nil, nil, newSplitOutOfRangeError(axis, at, lo, hi)
	}
	left := newAABB(b.bounds[0], WithComponent(b.bounds[1], axis, at))
	right := newAABB(WithComponent(b.bounds[0], axis, at), b.bounds[1])
	return left, right, nil
}

// ContainsPoint reports whether pt lies inside the box or on its boundary.
func (b *AABB) ContainsPoint(pt r3.Vector) bool {
	return pt.X >= b.bounds[0].X && pt.X <= b.bounds[1].X &&
		pt.Y >= b.bounds[0].Y && pt.Y <= b.bounds[1].Y &&
		pt.Z >= b.bounds[0].Z && pt.Z <= b.bounds[1].Z
}

// ContainsBox reports whether other lies entirely inside this box.
func (b *AABB) ContainsBox(other *AABB) bool {
	return b.ContainsPoint(other.bounds[0]) && b.ContainsPoint(other.bounds[1])
}

// String returns a human readable string that represents the box.
func (b *AABB) String() string {
	return fmt.Sprintf("AABB | Min: X:%.3f, Y:%.3f, Z:%.3f | Max: X:%.3f, Y:%.3f, Z:%.3f",
		b.bounds[0].X, b.bounds[0].Y, b.bounds[0].Z, b.bounds[1].X, b.bounds[1].Y, b.bounds[1].Z)
}

// IntersectTriangle checks whether the triangle t0, t1, t2 touches the box using the separating axis
// theorem. The 13 candidate axes are tested in order: the 3 box axes, the triangle normal and the 9 cross
// products of the triangle edges with the box axes. If normal is nil it is computed from the triangle.
// references: Akenine-Möller, "Fast 3D Triangle-Box Overlap Testing"
//
//	https://gdbooks.gitbooks.io/3dcollisions/content/Chapter4/aabb-triangle.html
func (b *AABB) IntersectTriangle(t0, t1, t2 r3.Vector, normal *r3.Vector) bool {
	// box face normals
	lo := VectorMin(t0, VectorMin(t1, t2))
	hi := VectorMax(t0, VectorMax(t1, t2))
	for axis := AxisX; axis <= AxisZ; axis++ {
		if Component(lo, axis) > Component(b.bounds[1], axis) || Component(hi, axis) < Component(b.bounds[0], axis) {
			return false
		}
	}

	// triangle normal
	var n r3.Vector
	if normal != nil {
		n = *normal
	} else {
		n = PlaneNormal(t0, t1, t2)
	}
	if math.Abs(n.Dot(b.center.Sub(t0))) > b.projectedRadius(n) {
		return false
	}

	// edge cross products
	edges := [3]r3.Vector{t1.Sub(t0), t2.Sub(t1), t0.Sub(t2)}
	v0, v1, v2 := t0.Sub(b.center), t1.Sub(b.center), t2.Sub(b.center)
	for _, edge := range edges {
		for _, boxAxis := range unitAxes {
			axis := edge.Cross(boxAxis).Normalize()
			if separatedAlong(axis, v0, v1, v2, b.projectedRadius(axis)) {
				return false
			}
		}
	}
	return true
}

// projectedRadius returns the half width of the box when projected onto axis.
func (b *AABB) projectedRadius(axis r3.Vector) float64 {
	return b.dim.Mul(0.5).Dot(axis.Abs())
}

// separatedAlong reports whether the projection of the box-centered triangle v0, v1, v2 onto axis falls
// entirely outside [-radius, radius].
func separatedAlong(axis, v0, v1, v2 r3.Vector, radius float64) bool {
	p0, p1, p2 := v0.Dot(axis), v1.Dot(axis), v2.Dot(axis)
	return math.Min(p0, math.Min(p1, p2)) > radius || math.Max(p0, math.Max(p1, p2)) < -radius
}
