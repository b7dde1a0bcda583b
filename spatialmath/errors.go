package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput is returned when geometry cannot be built from the given input.
	ErrInvalidInput = errors.New("invalid geometry input")

	// ErrSplitOutOfRange is returned when a box is split at a coordinate outside of its extent.
	ErrSplitOutOfRange = errors.New("split coordinate out of range")
)

func newEmptyPointSetError() error {
	return errors.Wrap(ErrInvalidInput, "cannot bound an empty point set")
}

func newInvertedBoundsError(min, max r3.Vector) error {
	return errors.Wrapf(ErrInvalidInput, "box min %v exceeds max %v", min, max)
}

func newBadAxisError(axis int) error {
	return errors.Wrapf(ErrInvalidInput, "axis %d is not one of 0, 1, 2", axis)
}

func newSplitOutOfRangeError(axis int, at, lo, hi float64) error {
	return errors.Wrapf(ErrSplitOutOfRange, "cannot split axis %d at %g outside [%g, %g]", axis, at, lo, hi)
}
