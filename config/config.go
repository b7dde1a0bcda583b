// Package config defines the JSON configuration of a kdmesh render: which mesh to load, how to
// index it and where to look at it from.
package config

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/kdmesh/kdtree"
	"go.viam.com/kdmesh/logging"
	"go.viam.com/kdmesh/render"
)

// Tracer names accepted by RenderConfig.Tracer.
const (
	TracerTree  = "tree"
	TracerNaive = "naive"
	TracerBoxes = "boxes"
)

// Config is the top level configuration.
type Config struct {
	Mesh   string       `json:"mesh"`
	Output string       `json:"output,omitempty"`
	Camera CameraConfig `json:"camera"`
	Index  IndexConfig  `json:"index"`
	Render RenderConfig `json:"render"`

	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// CameraConfig places the camera. Eye is given in the camera frame, see render.NewCameraFacing.
type CameraConfig struct {
	Eye         r3.Vector `json:"eye"`
	Facing      r3.Vector `json:"facing"`
	Up          r3.Vector `json:"up"`
	FOV         float64   `json:"fov_degs"`
	AspectRatio float64   `json:"aspect_ratio,omitempty"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
}

// IndexConfig controls how the kd-tree is built.
type IndexConfig struct {
	LeafSize      int  `json:"leaf_size"`
	ParallelDepth int  `json:"parallel_depth,omitempty"`
	Triangles     bool `json:"triangles,omitempty"`
	Strict        bool `json:"strict,omitempty"`
}

// RenderConfig selects the tracer and shading.
type RenderConfig struct {
	Tracer     string `json:"tracer"`
	NormalMode string `json:"normal_mode"`
}

// Default returns the configuration used when no file is given: a 400x300 view of the origin
// from 10 units away, looking along (-1, 1, 0) with z up.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Eye:    r3.Vector{X: 0, Y: .5, Z: -10},
			Facing: r3.Vector{X: -1, Y: 1, Z: 0},
			Up:     r3.Vector{X: 0, Y: 0, Z: 1},
			FOV:    60,
			Width:  400,
			Height: 300,
		},
		Index: IndexConfig{
			LeafSize: kdtree.DefaultLeafSize,
		},
		Render: RenderConfig{
			Tracer:     TracerTree,
			NormalMode: render.Phong.String(),
		},
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if c.Mesh == "" {
		return utils.NewConfigValidationFieldRequiredError("", "mesh")
	}
	if err := c.Camera.Validate("camera"); err != nil {
		return err
	}
	if err := c.Index.Validate("index"); err != nil {
		return err
	}
	return c.Render.Validate("render")
}

// Validate ensures all parts of the config are valid.
func (c *CameraConfig) Validate(path string) error {
	if c.Facing.Norm2() == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "facing")
	}
	if c.Up.Norm2() == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "up")
	}
	if c.Width <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("width must be positive, got %d", c.Width))
	}
	if c.Height <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("height must be positive, got %d", c.Height))
	}
	if c.FOV <= 0 || c.FOV >= 90 {
		return utils.NewConfigValidationError(path, errors.Errorf("fov_degs must be in (0, 90), got %v", c.FOV))
	}
	if c.AspectRatio < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("aspect_ratio must not be negative, got %v", c.AspectRatio))
	}
	return nil
}

// Camera builds the render camera. A zero aspect ratio means width over height.
func (c *CameraConfig) Camera() (*render.Camera, error) {
	aspect := c.AspectRatio
	if aspect == 0 {
		aspect = float64(c.Width) / float64(c.Height)
	}
	return render.NewCameraFacing(c.Eye, c.Facing, c.Up, c.FOV, aspect, c.Width, c.Height)
}

// Validate ensures all parts of the config are valid.
func (c *IndexConfig) Validate(path string) error {
	if c.LeafSize < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("leaf_size must be at least 1, got %d", c.LeafSize))
	}
	if c.ParallelDepth < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("parallel_depth must not be negative, got %d", c.ParallelDepth))
	}
	return nil
}

// Options returns the kd-tree build options matching the config.
func (c *IndexConfig) Options(logger logging.Logger) []kdtree.Option {
	opts := []kdtree.Option{
		kdtree.WithLeafSize(c.LeafSize),
		kdtree.WithParallelDepth(c.ParallelDepth),
		kdtree.WithLogger(logger),
	}
	if c.Strict {
		opts = append(opts, kdtree.WithStrictBuild())
	}
	return opts
}

// Validate ensures all parts of the config are valid.
func (c *RenderConfig) Validate(path string) error {
	switch c.Tracer {
	case TracerTree, TracerNaive, TracerBoxes:
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "tracer")
	default:
		return utils.NewConfigValidationError(path,
			errors.Errorf("unknown tracer %q, want one of %q, %q or %q", c.Tracer, TracerTree, TracerNaive, TracerBoxes))
	}
	if _, err := render.NormalModeFromString(c.NormalMode); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}
