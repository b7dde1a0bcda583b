package utils

import (
	"context"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor is the number of row and column bands ParallelForEachPixel cuts an image into.
// Tests may lower it.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	if quarter := ParallelFactor / 4; quarter > 8 {
		ParallelFactor = quarter
	}
}

// pixelBlocks cuts size into n*n rectangles. The last band on each axis takes the remainder, and
// empty rectangles are dropped.
func pixelBlocks(size image.Point, n int) []image.Rectangle {
	bounds := func(total, i int) (int, int) {
		step := total / n
		if i == n-1 {
			return i * step, total
		}
		return i * step, (i + 1) * step
	}
	blocks := make([]image.Rectangle, 0, n*n)
	for i := 0; i < n; i++ {
		x0, x1 := bounds(size.X, i)
		for j := 0; j < n; j++ {
			y0, y1 := bounds(size.Y, j)
			if r := image.Rect(x0, y0, x1, y1); !r.Empty() {
				blocks = append(blocks, r)
			}
		}
	}
	return blocks
}

// ParallelForEachPixel calls f once for every [x, y] position of an image of the given size. Each
// of the ParallelFactor * ParallelFactor blocks of the image runs in its own goroutine; f must be
// safe for concurrent use.
func ParallelForEachPixel(size image.Point, f func(x, y int)) {
	var wg sync.WaitGroup
	for _, block := range pixelBlocks(size, ParallelFactor) {
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			for x := block.Min.X; x < block.Max.X; x++ {
				for y := block.Min.Y; y < block.Max.Y; y++ {
					f(x, y)
				}
			}
		})
	}
	wg.Wait()
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// parallelErrors collects the failures of RunInParallel. Once a real failure is recorded, the
// context cancellations it caused in the other functions are left out.
type parallelErrors struct {
	mu  sync.Mutex
	err error
}

func (pe *parallelErrors) add(err error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()
	if pe.err != nil && errors.Is(err, context.Canceled) {
		return
	}
	pe.err = multierr.Append(pe.err, err)
}

// RunInParallel runs all functions in parallel and returns the elapsed time along with every
// failure combined. The first failure or panic cancels the context handed to the others.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var errs parallelErrors
	var wg sync.WaitGroup
	for _, f := range fs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if thePanic := recover(); thePanic != nil {
					errs.add(errors.Errorf("panic while running in parallel: %v", thePanic))
					cancel()
				}
			}()
			if err := f(ctx); err != nil {
				errs.add(err)
				cancel()
			}
		}()
	}
	wg.Wait()
	return time.Since(start), errs.err
}
