package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Axis indices used to address the components of an r3.Vector.
const (
	AxisX = iota
	AxisY
	AxisZ
)

// Component returns the coordinate of v along the given axis.
func Component(v r3.Vector, axis int) float64 {
	switch axis {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// WithComponent returns a copy of v with its coordinate along axis replaced by value.
func WithComponent(v r3.Vector, axis int, value float64) r3.Vector {
	switch axis {
	case AxisX:
		v.X = value
	case AxisY:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// VectorMin returns the component-wise minimum of a and b.
func VectorMin(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// VectorMax returns the component-wise maximum of a and b.
func VectorMax(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// IsFinite reports whether no component of v is NaN or infinite.
func IsFinite(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// unitAxes are the three box axes in axis order.
var unitAxes = [3]r3.Vector{
	{X: 1},
	{Y: 1},
	{Z: 1},
}
