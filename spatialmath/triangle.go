package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three positions in space with a precomputed unit normal.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle instantiates a triangle. The normal follows the right hand rule over p0, p1, p2.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// PlaneNormal returns the unit normal of the plane through p0, p1, p2, or the zero vector if the points
// are collinear.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// Points returns the three vertices of the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the average of the triangle vertices.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3)
}

// IntersectsBox checks whether the triangle touches the given box.
func (t *Triangle) IntersectsBox(b *AABB) bool {
	return b.IntersectTriangle(t.p0, t.p1, t.p2, &t.normal)
}

// IntersectRay returns the point where the ray hits the front face of the triangle.
func (t *Triangle) IntersectRay(ray *Ray) (r3.Vector, bool) {
	pt, _, ok := ray.IntersectTriangle(t.p0, t.p1, t.p2)
	return pt, ok
}
