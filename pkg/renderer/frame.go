package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// ErrInvalidDimensions is returned for renders with a non-positive width, height or sample count
var ErrInvalidDimensions = errors.New("invalid render dimensions")

var errPoolClosed = errors.New("worker pool closed unexpectedly")

// Options is the render configuration passed to TraceScene
type Options struct {
	Width       int                  // Image width in pixels
	Height      int                  // Image height in pixels
	Samples     int                  // Samples per pixel
	MaxDepth    int                  // Bounce cap (0 = MaxDepth)
	Workers     int                  // Parallel workers (0 = CPU count)
	Seed        int64                // Base seed; row y uses Seed+y
	Environment material.PixelSource // Optional environment image used as background
	Logger      core.Logger          // Optional; nil discards output
}

// DefaultOptions returns sensible default values
func DefaultOptions() Options {
	return Options{
		Width:    400,
		Height:   225,
		Samples:  100,
		MaxDepth: MaxDepth,
		Seed:     42,
	}
}

// Validate checks the render dimensions
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, o.Width, o.Height)
	}
	if o.Samples <= 0 {
		return fmt.Errorf("%w: %d samples per pixel", ErrInvalidDimensions, o.Samples)
	}
	return nil
}

func (o Options) logger() core.Logger {
	if o.Logger == nil {
		return core.NopLogger{}
	}
	return o.Logger
}

// TraceScene renders a full frame and returns Width*Height gamma-encoded
// colors, row-major with the top row first. Channels are not clamped.
// Rows are rendered in parallel, each with its own random stream, so the
// result for a given seed does not depend on the number of workers.
func TraceScene(ctx context.Context, opts Options, camera *Camera, world geometry.Shape) ([]core.Color, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.logger()

	raytracer := NewRaytracer(world, backgroundFor(opts.Environment), opts.MaxDepth)
	pixelStats := newPixelStats(opts.Width, opts.Height)

	pool := NewWorkerPool(raytracer, camera, opts.Width, opts.Height, opts.Workers)
	pool.Start(ctx)
	defer pool.Stop()

	logger.Debugf("Tracing %dx%d at %d samples per pixel with %d workers", opts.Width, opts.Height, opts.Samples, pool.GetNumWorkers())
	start := time.Now()

	bounces, err := renderRows(pool, pixelStats, opts.Samples, func(y int) int64 {
		return opts.Seed + int64(y)
	})
	if err != nil {
		return nil, err
	}

	stats := summarize(pixelStats, opts.Samples, bounces)
	logger.Debugf("Traced %d samples (%d bounces) in %v", stats.TotalSamples, stats.TotalBounces, time.Since(start))

	return resolvePixels(pixelStats), nil
}

func newPixelStats(width, height int) [][]PixelStats {
	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}
	return pixelStats
}

// resolvePixels averages and gamma-encodes the accumulated samples
func resolvePixels(pixelStats [][]PixelStats) []core.Color {
	if len(pixelStats) == 0 {
		return nil
	}
	pixels := make([]core.Color, 0, len(pixelStats)*len(pixelStats[0]))
	for y := range pixelStats {
		for x := range pixelStats[y] {
			pixels = append(pixels, pixelStats[y][x].GetColor().Gamma2())
		}
	}
	return pixels
}
