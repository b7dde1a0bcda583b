package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/lmittmann/ppm"
	"github.com/xfmoulet/qoi"
	"go.viam.com/test"

	"go.viam.com/kdmesh/spatialmath"
)

// upTracer paints rays pointing up in the camera frame white.
type upTracer struct{}

func (upTracer) Trace(ray *spatialmath.Ray) color.RGBA {
	if ray.Direction().Y > 0 {
		return white
	}
	return background
}

func TestRenderFlipsRows(t *testing.T) {
	cam, err := NewCameraFacing(r3.Vector{}, r3.Vector{0, 0, 1}, r3.Vector{0, 1, 0}, 30, 1, 20, 10)
	test.That(t, err, test.ShouldBeNil)

	img, err := Render(context.Background(), upTracer{}, cam)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		test.That(t, img.RGBAAt(x, 0), test.ShouldResemble, white)
		test.That(t, img.RGBAAt(x, 9), test.ShouldResemble, background)
	}
}

func TestRenderCanceled(t *testing.T) {
	cam, err := NewCameraFacing(r3.Vector{}, r3.Vector{0, 0, 1}, r3.Vector{0, 1, 0}, 30, 1, 8, 8)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Render(ctx, upTracer{}, cam)
	test.That(t, err, test.ShouldEqual, context.Canceled)
}

func TestRenderTerrain(t *testing.T) {
	m := makeTerrain(t, 15)
	cam := overhead(t, 16, 12)
	img, err := Render(context.Background(), NewNaiveTracer(m, cam.Position, Flat), cam)
	test.That(t, err, test.ShouldBeNil)
	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			c := img.RGBAAt(x, y)
			test.That(t, c.R, test.ShouldBeGreaterThan, 0)
			test.That(t, c.R, test.ShouldEqual, c.G)
			test.That(t, c.G, test.ShouldEqual, c.B)
		}
	}
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{10, 20, 30, 255})
	img.SetRGBA(2, 1, white)
	img.SetRGBA(1, 1, color.RGBA{A: 255})
	return img
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	img := testImage()

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "out.png")
		test.That(t, WriteImage(path, img), test.ShouldBeNil)
		//nolint:gosec
		f, err := os.Open(path)
		test.That(t, err, test.ShouldBeNil)
		defer f.Close()
		decoded, err := png.Decode(f)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, color.RGBAModel.Convert(decoded.At(0, 0)), test.ShouldResemble, color.RGBA{10, 20, 30, 255})
		test.That(t, color.RGBAModel.Convert(decoded.At(2, 1)), test.ShouldResemble, white)
	})

	t.Run("ppm", func(t *testing.T) {
		path := filepath.Join(dir, "out.PPM")
		test.That(t, WriteImage(path, img), test.ShouldBeNil)
		data, err := os.ReadFile(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bytes.HasPrefix(data, []byte("P6")), test.ShouldBeTrue)
		decoded, err := ppm.Decode(bytes.NewReader(data))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, decoded.Bounds(), test.ShouldResemble, img.Bounds())
		test.That(t, color.RGBAModel.Convert(decoded.At(0, 0)), test.ShouldResemble, color.RGBA{10, 20, 30, 255})
	})

	t.Run("qoi", func(t *testing.T) {
		path := filepath.Join(dir, "out.qoi")
		test.That(t, WriteImage(path, img), test.ShouldBeNil)
		data, err := os.ReadFile(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bytes.HasPrefix(data, []byte("qoif")), test.ShouldBeTrue)
		decoded, err := qoi.Decode(bytes.NewReader(data))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, decoded.Bounds(), test.ShouldResemble, img.Bounds())
		test.That(t, color.RGBAModel.Convert(decoded.At(2, 1)), test.ShouldResemble, white)
	})

	t.Run("unknown extension", func(t *testing.T) {
		err := WriteImage(filepath.Join(dir, "out.jpg"), img)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, ".png, .ppm or .qoi")
	})

	t.Run("missing directory", func(t *testing.T) {
		err := WriteImage(filepath.Join(dir, "nope", "out.png"), img)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
