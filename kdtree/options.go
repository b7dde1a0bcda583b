package kdtree

import (
	"github.com/pkg/errors"

	"go.viam.com/kdmesh/logging"
	"go.viam.com/kdmesh/spatialmath"
)

type buildOptions struct {
	leafSize      int
	logger        logging.Logger
	parallelDepth int
	strict        bool
}

func defaultBuildOptions() buildOptions {
	return buildOptions{
		leafSize: DefaultLeafSize,
	}
}

// Option configures tree construction.
type Option func(*buildOptions)

// WithLeafSize sets the vertex count below which a node becomes a leaf. It must be at least 1.
func WithLeafSize(n int) Option {
	return func(o *buildOptions) {
		o.leafSize = n
	}
}

// WithLogger sets the logger used during construction and by queries on the tree.
func WithLogger(logger logging.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithParallelDepth builds the subtrees of nodes shallower than depth concurrently. Zero, the
// default, builds on the calling goroutine.
func WithParallelDepth(depth int) Option {
	return func(o *buildOptions) {
		o.parallelDepth = depth
	}
}

// WithStrictBuild makes a failed node split abort construction instead of turning the node into a
// leaf.
func WithStrictBuild() Option {
	return func(o *buildOptions) {
		o.strict = true
	}
}

func (o *buildOptions) validate() error {
	if o.leafSize < 1 {
		return errors.Wrapf(spatialmath.ErrInvalidInput, "leaf size must be at least 1, got %d", o.leafSize)
	}
	if o.parallelDepth < 0 {
		return errors.Wrapf(spatialmath.ErrInvalidInput, "parallel depth must not be negative, got %d", o.parallelDepth)
	}
	if o.logger == nil {
		o.logger = logging.Global().Sublogger("kdtree")
	}
	return nil
}
