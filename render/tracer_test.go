package render

import (
	"context"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/kdmesh/kdtree"
	"go.viam.com/kdmesh/mesh"
	"go.viam.com/kdmesh/spatialmath"
)

var white = color.RGBA{255, 255, 255, 255}

// facingCamera returns a triangle in the z = 0 plane whose front faces -z, and a copy of it moved
// to z = 1.
func facingCamera(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(
		[]r3.Vector{{-1, -1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 1}, {-1, 1, 1}, {1, -1, 1}},
		[]mesh.Triangle{{0, 1, 2}, {3, 4, 5}},
	)
	test.That(t, err, test.ShouldBeNil)
	return m
}

// makeTerrain returns an n by n heightfield over [0, 10]^2 with upward facing triangles.
func makeTerrain(t *testing.T, n int) *mesh.Mesh {
	t.Helper()
	step := 10 / float64(n-1)
	vertices := make([]r3.Vector, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x, y := float64(i)*step, float64(j)*step
			vertices = append(vertices, r3.Vector{X: x, Y: y, Z: 2 + math.Sin(x)*math.Cos(y)})
		}
	}
	var triangles []mesh.Triangle
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a := j*n + i
			triangles = append(triangles, mesh.Triangle{a, a + 1, a + n + 1}, mesh.Triangle{a, a + n + 1, a + n})
		}
	}
	m, err := mesh.New(vertices, triangles)
	test.That(t, err, test.ShouldBeNil)
	return m
}

// overhead returns a camera 10 units above the middle of the terrain looking straight down.
func overhead(t *testing.T, w, h int) *Camera {
	t.Helper()
	cam, err := NewCameraFacing(r3.Vector{-5, 5, -10}, r3.Vector{0, 0, -1}, r3.Vector{0, 1, 0}, 40, float64(w)/float64(h), w, h)
	test.That(t, err, test.ShouldBeNil)
	vectorsAlmostEqual(t, cam.Position, r3.Vector{5, 5, 10})
	return cam
}

func TestClosestHit(t *testing.T) {
	m := facingCamera(t)
	ray := spatialmath.NewRay(r3.Vector{-.5, -.5, -10}, r3.Vector{0, 0, 1})

	hit, ok := ClosestHit(m, []int{1, 0}, ray)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.Triangle, test.ShouldEqual, 0)
	test.That(t, hit.Point, test.ShouldResemble, r3.Vector{-.5, -.5, 0})

	hit, ok = ClosestHit(m, []int{1}, ray)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.Triangle, test.ShouldEqual, 1)

	// the same triangle listed twice resolves to the later entry
	twin, err := mesh.New(m.Vertices, []mesh.Triangle{{0, 1, 2}, {0, 1, 2}})
	test.That(t, err, test.ShouldBeNil)
	hit, ok = ClosestHit(twin, []int{0, 1}, ray)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.Triangle, test.ShouldEqual, 1)

	_, ok = ClosestHit(m, []int{0, 1}, spatialmath.NewRay(r3.Vector{.9, .9, -10}, r3.Vector{0, 0, 1}))
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = ClosestHit(m, nil, ray)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestNaiveTracer(t *testing.T) {
	m := facingCamera(t)
	eye := r3.Vector{-.5, -.5, -10}

	for _, mode := range []NormalMode{Phong, Flat} {
		tracer := NewNaiveTracer(m, eye, mode)
		test.That(t, tracer.Trace(spatialmath.NewRay(eye, r3.Vector{0, 0, 1})), test.ShouldResemble, white)
		test.That(t, tracer.Trace(spatialmath.NewRay(eye, r3.Vector{0, 0, -1})), test.ShouldResemble, background)
		// seen from behind, both triangles are culled
		behind := spatialmath.NewRay(r3.Vector{-.5, -.5, 10}, r3.Vector{0, 0, -1})
		test.That(t, tracer.Trace(behind), test.ShouldResemble, background)
	}

	t.Run("grazing light darkens the shade", func(t *testing.T) {
		side := r3.Vector{-.5 + 10, -.5, -10}
		tracer := NewNaiveTracer(m, side, Flat)
		got := tracer.Trace(spatialmath.NewRay(r3.Vector{-.5, -.5, -10}, r3.Vector{0, 0, 1}))
		// cos 45 degrees of 255, rounded up
		test.That(t, got, test.ShouldResemble, color.RGBA{181, 181, 181, 255})
	})
}

func TestNormalModeFromString(t *testing.T) {
	for in, expected := range map[string]NormalMode{"phong": Phong, "PHONG": Phong, "": Phong, "triangle": Flat, "Flat": Flat} {
		mode, err := NormalModeFromString(in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mode, test.ShouldEqual, expected)
	}
	_, err := NormalModeFromString("gouraud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Flat.String(), test.ShouldEqual, "triangle")
	test.That(t, Phong.String(), test.ShouldEqual, "phong")
}

func TestTreeTracerMatchesNaive(t *testing.T) {
	m := makeTerrain(t, 25)
	cam := overhead(t, 48, 36)
	naive := NewNaiveTracer(m, cam.Position, Phong)

	// agreement returns the fraction of pixels traced identically, failing on any pixel the naive
	// tracer misses since every ray of the overhead camera crosses the terrain.
	agreement := func(t *testing.T, tracer Tracer, exact bool) float64 {
		t.Helper()
		same := 0
		for i := 0; i < cam.Width; i++ {
			for j := 0; j < cam.Height; j++ {
				ray := cam.Ray(i, j)
				expected := naive.Trace(ray)
				test.That(t, expected, test.ShouldNotResemble, background)
				got := tracer.Trace(ray)
				if got == expected {
					same++
					continue
				}
				if exact {
					// rays through a shared edge may pick either neighbor
					test.That(t, math.Abs(float64(got.R)-float64(expected.R)), test.ShouldBeLessThanOrEqualTo, 2)
				}
			}
		}
		return float64(same) / float64(cam.Width*cam.Height)
	}

	t.Run("triangle lists", func(t *testing.T) {
		tree, err := kdtree.FromMesh(context.Background(), m)
		test.That(t, err, test.ShouldBeNil)
		tracer, err := NewTreeTracer(tree, m, cam.Position, Phong)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, agreement(t, tracer, true), test.ShouldBeGreaterThan, .99)
	})

	t.Run("vertex map", func(t *testing.T) {
		// candidates only come from triangles touching a leaf vertex, so a hit may be found late
		tree, err := kdtree.FromVertices(context.Background(), m.Vertices)
		test.That(t, err, test.ShouldBeNil)
		tracer, err := NewTreeTracer(tree, m, cam.Position, Phong)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, agreement(t, tracer, false), test.ShouldBeGreaterThan, .9)
	})
}

func TestNewTreeTracerRejectsOtherMesh(t *testing.T) {
	m := makeTerrain(t, 10)
	tree, err := kdtree.FromMesh(context.Background(), m)
	test.That(t, err, test.ShouldBeNil)

	_, err = NewTreeTracer(tree, makeTerrain(t, 11), r3.Vector{}, Phong)
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)

	fewer, err := mesh.New(m.Vertices, m.Triangles[:3])
	test.That(t, err, test.ShouldBeNil)
	_, err = NewTreeTracer(tree, fewer, r3.Vector{}, Phong)
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)
}
