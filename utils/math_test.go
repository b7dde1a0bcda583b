package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestMedian(t *testing.T) {
	test.That(t, math.IsNaN(Median()), test.ShouldBeTrue)
	test.That(t, Median(3), test.ShouldEqual, 3.)
	// even counts take the upper of the two middle values
	test.That(t, Median(4, 1, 3, 2), test.ShouldEqual, 3.)
	test.That(t, Median(5, 1, 4, 2, 3), test.ShouldEqual, 3.)
	test.That(t, Median(2, 2, 2, 2), test.ShouldEqual, 2.)
}

func TestClampU8(t *testing.T) {
	test.That(t, ClampU8(-5), test.ShouldEqual, uint8(0))
	test.That(t, ClampU8(0.2), test.ShouldEqual, uint8(1))
	test.That(t, ClampU8(254.01), test.ShouldEqual, uint8(255))
	test.That(t, ClampU8(1000), test.ShouldEqual, uint8(255))
	test.That(t, ClampU8(math.NaN()), test.ShouldEqual, uint8(0))
}

func TestAngles(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldEqual, math.Pi)
	test.That(t, Float64AlmostEqual(DegToRad(45), math.Pi/4, 1e-15), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-3), test.ShouldBeFalse)
}
