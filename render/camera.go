// Package render ray traces triangle meshes into grayscale images, either by testing every
// triangle or by walking a kd-tree built over the mesh.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/kdmesh/spatialmath"
	"go.viam.com/kdmesh/utils"
)

// Camera is a pinhole camera. X and Y span the image plane and Z is the viewing direction, all
// unit length.
type Camera struct {
	Position r3.Vector
	X, Y, Z  r3.Vector

	// FOV is in degrees. The image plane at unit distance is tan(FOV) wide.
	FOV         float64
	AspectRatio float64
	Width       int
	Height      int
}

// NewCameraFacing returns a camera looking along facing with up pointing roughly upwards in the
// image. eye is the camera position expressed in the camera frame, so an eye of (0, 0, -10) puts
// the camera 10 units behind the origin along the viewing direction.
func NewCameraFacing(eye, facing, up r3.Vector, fov, aspectRatio float64, width, height int) (*Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "image size must be positive, got %dx%d", width, height)
	}
	if !(fov > 0 && fov < 90) {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "fov must be in (0, 90) degrees, got %v", fov)
	}
	if !(aspectRatio > 0) || math.IsInf(aspectRatio, 0) {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "aspect ratio must be positive, got %v", aspectRatio)
	}

	rot, err := faceTowards(toVec3(facing), toVec3(up))
	if err != nil {
		return nil, err
	}
	return &Camera{
		Position:    fromVec3(rot.Mul3x1(toVec3(eye))),
		X:           fromVec3(rot.Col(0)),
		Y:           fromVec3(rot.Col(1)),
		Z:           fromVec3(rot.Col(2)),
		FOV:         fov,
		AspectRatio: aspectRatio,
		Width:       width,
		Height:      height,
	}, nil
}

// faceTowards returns the rotation mapping the z axis onto dir, with up in the y-z half plane.
func faceTowards(dir, up mgl64.Vec3) (mgl64.Mat3, error) {
	if dir.Len() == 0 {
		return mgl64.Mat3{}, errors.Wrap(spatialmath.ErrInvalidInput, "camera must face a non-zero direction")
	}
	z := dir.Normalize()
	x := up.Cross(z)
	if x.Len() < 1e-12 {
		return mgl64.Mat3{}, errors.Wrapf(spatialmath.ErrInvalidInput, "up %v is parallel to the viewing direction", up)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return mgl64.Mat3FromCols(x, y, z), nil
}

// Ray returns the primary ray through pixel (i, j), j counting rows from the bottom of the image.
func (c *Camera) Ray(i, j int) *spatialmath.Ray {
	span := math.Tan(utils.DegToRad(c.FOV))
	stepX := span / float64(c.Width)
	stepY := span / c.AspectRatio / float64(c.Height)

	dir := c.X.Mul((float64(i) - float64(c.Width)/2) * stepX).
		Add(c.Y.Mul((float64(j) - float64(c.Height)/2) * stepY)).
		Add(c.Z).
		Normalize()
	return spatialmath.NewRay(c.Position, dir)
}

func toVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromVec3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
