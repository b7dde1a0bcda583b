package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Ray is a half line starting at a position and extending along a direction. The reciprocal of the
// direction and its sign are cached so box tests can pick near and far slabs without branching on the
// direction for every comparison.
type Ray struct {
	position     r3.Vector
	direction    r3.Vector
	invDirection r3.Vector
	sign         [3]int
}

// NewRay instantiates a ray. The direction is expected to be normalized by the caller so that returned
// distances are Euclidean.
func NewRay(position, direction r3.Vector) *Ray {
	inv := r3.Vector{X: 1 / direction.X, Y: 1 / direction.Y, Z: 1 / direction.Z}
	r := &Ray{
		position:     position,
		direction:    direction,
		invDirection: inv,
	}
	for axis := AxisX; axis <= AxisZ; axis++ {
		if Component(inv, axis) < 0 {
			r.sign[axis] = 1
		}
	}
	return r
}

// Position returns the origin of the ray.
func (r *Ray) Position() r3.Vector {
	return r.position
}

// Direction returns the direction of the ray.
func (r *Ray) Direction() r3.Vector {
	return r.direction
}

// At returns the point at distance t along the ray.
func (r *Ray) At(t float64) r3.Vector {
	return r.position.Add(r.direction.Mul(t))
}

// String returns a human readable string that represents the ray.
func (r *Ray) String() string {
	return fmt.Sprintf("Ray | Position: X:%.3f, Y:%.3f, Z:%.3f | Direction: X:%.3f, Y:%.3f, Z:%.3f",
		r.position.X, r.position.Y, r.position.Z, r.direction.X, r.direction.Y, r.direction.Z)
}

// slab returns the parametric interval over which the ray is between the two bounding planes of axis.
func (r *Ray) slab(bounds *[2]r3.Vector, axis int) (float64, float64, bool) {
	pos := Component(r.position, axis)
	if Component(r.direction, axis) == 0 {
		// parallel to the slab: either always inside it or never
		if pos < Component(bounds[0], axis) || pos > Component(bounds[1], axis) {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	inv := Component(r.invDirection, axis)
	near := (Component(bounds[r.sign[axis]], axis) - pos) * inv
	far := (Component(bounds[1-r.sign[axis]], axis) - pos) * inv
	return near, far, true
}

// IntersectBox returns the distance along the ray to the box described by bounds, using the slab method.
// If the origin is outside the box the entry distance is returned, if it is inside the exit distance is
// returned. Boxes entirely behind the ray are not hit.
// references: Williams et al., "An Efficient and Robust Ray-Box Intersection Algorithm"
func (r *Ray) IntersectBox(bounds [2]r3.Vector) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for axis := AxisX; axis <= AxisZ; axis++ {
		near, far, ok := r.slab(&bounds, axis)
		if !ok || near > tmax || tmin > far {
			return 0, false
		}
		if near > tmin {
			tmin = near
		}
		if far < tmax {
			tmax = far
		}
	}
	if tmin >= 0 {
		return tmin, true
	}
	if tmax < 0 {
		return 0, false
	}
	return tmax, true
}

// IntersectTriangle checks whether the ray hits the front face of the triangle t0, t1, t2 using the
// Möller–Trumbore algorithm. Triangles seen from the back and degenerate triangles are never hit. On a hit
// the intersection point and the barycentric coordinates (u, v) relative to t1 and t2 are returned.
func (r *Ray) IntersectTriangle(t0, t1, t2 r3.Vector) (r3.Vector, [2]float64, bool) {
	e0 := t1.Sub(t0)
	e1 := t2.Sub(t0)

	p := r.direction.Cross(e1)
	det := e0.Dot(p)
	if det <= 0 {
		return r3.Vector{}, [2]float64{}, false
	}
	invDet := 1 / det

	w := r.position.Sub(t0)
	u := w.Dot(p) * invDet
	if u < 0 || u > 1 {
		return r3.Vector{}, [2]float64{}, false
	}

	q := w.Cross(e0)
	v := r.direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return r3.Vector{}, [2]float64{}, false
	}

	t := e1.Dot(q) * invDet
	if t < 0 {
		return r3.Vector{}, [2]float64{}, false
	}
	return r.At(t), [2]float64{u, v}, true
}
