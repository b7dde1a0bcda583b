package render

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"

	"go.viam.com/kdmesh/utils"
)

// Render traces one ray per pixel of camera in parallel. Row 0 of the returned image is the top
// of the picture, that is the camera's last row of rays.
func Render(ctx context.Context, tracer Tracer, camera *Camera) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, camera.Width, camera.Height))
	utils.ParallelForEachPixel(image.Point{X: camera.Width, Y: camera.Height}, func(i, j int) {
		if ctx.Err() != nil {
			return
		}
		img.SetRGBA(i, camera.Height-1-j, tracer.Trace(camera.Ray(i, j)))
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

// WritePNG encodes img as a PNG.
func WritePNG(img image.Image, out io.Writer) error {
	return png.Encode(out, img)
}

// WritePPM encodes img as a binary PPM.
func WritePPM(img image.Image, out io.Writer) error {
	return ppm.Encode(out, img)
}

// WriteQOI encodes img in the Quite OK Image format.
func WriteQOI(img image.Image, out io.Writer) error {
	return qoi.Encode(out, img)
}

// WriteImage writes img to path, choosing the encoding from the .png, .ppm or .qoi extension.
func WriteImage(path string, img image.Image) (err error) {
	var encode func(image.Image, io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = WritePNG
	case ".ppm":
		encode = WritePPM
	case ".qoi":
		encode = WriteQOI
	default:
		return errors.Errorf("unsupported image extension for %q, want .png, .ppm or .qoi", path)
	}

	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return encode(img, f)
}
