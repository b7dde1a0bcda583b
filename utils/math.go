package utils

import (
	"math"
	"sort"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Median sorts values in place and returns the upper median, the element at index len/2. NaN is
// returned for no values.
func Median(values ...float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)

	return values[int(math.Floor(float64(len(values))/2))]
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Clamp returns value limited to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampU8 rounds value up and limits it to the range of a uint8.
func ClampU8(value float64) uint8 {
	if math.IsNaN(value) {
		return 0
	}
	return uint8(Clamp(math.Ceil(value), 0, math.MaxUint8))
}
