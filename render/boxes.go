package render

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/kdmesh/kdtree"
	"go.viam.com/kdmesh/spatialmath"
	"go.viam.com/kdmesh/utils"
)

// faceEpsilon is the distance under which a hit point is considered on a box face.
const faceEpsilon = 1.1920929e-7

// BoxTracer draws the kd-tree itself: each ray follows the nearest branch down to a leaf and
// shades the face of the leaf box it meets with a color derived from the leaf ID.
type BoxTracer struct {
	tree *kdtree.Tree
	eye  r3.Vector
}

// NewBoxTracer returns a tracer drawing the leaves of tree lit from eye.
func NewBoxTracer(tree *kdtree.Tree, eye r3.Vector) *BoxTracer {
	return &BoxTracer{tree: tree, eye: eye}
}

// Trace implements Tracer.
func (t *BoxTracer) Trace(ray *spatialmath.Ray) color.RGBA {
	var last kdtree.NodeHit
	found := false
	for hit := range t.tree.QueryRay(ray).FirstBranchOnly().LeavesOnly().All() {
		last, found = hit, true
	}
	if !found {
		return background
	}

	pt := ray.At(last.Distance)
	shade := t.eye.Sub(pt).Normalize().Dot(FaceNormal(last.Box(), pt))
	r, g, b := NodeColor(last.Node.ID()).RGB255()
	level := float64(utils.ClampU8(shade*255)) / 255
	return color.RGBA{
		R: uint8(math.Round(float64(r) * level)),
		G: uint8(math.Round(float64(g) * level)),
		B: uint8(math.Round(float64(b) * level)),
		A: 255,
	}
}

// NodeColor returns a stable debug color for a node ID, spreading consecutive IDs around the hue
// circle.
func NodeColor(id int) colorful.Color {
	// golden angle
	hue := math.Mod(float64(id)*137.50776405, 360)
	return colorful.Hsv(hue, .65, .95)
}

// FaceNormal returns the outward normal of the face of box that pt lies on, or the zero vector if
// pt is not on a face. On edges and corners the last matching axis wins.
func FaceNormal(box *spatialmath.AABB, pt r3.Vector) r3.Vector {
	var normal r3.Vector
	for axis := spatialmath.AxisX; axis <= spatialmath.AxisZ; axis++ {
		c := spatialmath.Component(pt, axis)
		if math.Abs(spatialmath.Component(box.Min(), axis)-c) <= faceEpsilon {
			normal = spatialmath.WithComponent(r3.Vector{}, axis, -1)
		}
		if math.Abs(spatialmath.Component(box.Max(), axis)-c) <= faceEpsilon {
			normal = spatialmath.WithComponent(r3.Vector{}, axis, 1)
		}
	}
	return normal
}
