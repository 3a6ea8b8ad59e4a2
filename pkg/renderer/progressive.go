package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	InitialSamples     int  // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int  // Maximum total samples per pixel
	MaxPasses          int  // Maximum number of passes
	Snapshots          bool // Attach an accumulation snapshot to every pass result
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: 50,
		MaxPasses:          7,
	}
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Pixels     []core.Color // Gamma-encoded, row-major, top row first
	Stats      RenderStats
	Elapsed    time.Duration
	IsLast     bool
	State      *AccumulationState // Set when ProgressiveConfig.Snapshots is enabled
}

// AccumulationState is the resumable part of a progressive render
type AccumulationState struct {
	Width  int
	Height int
	Pass   int // Last completed pass
	Seed   int64
	Pixels []PixelStats // Row-major
}

// ProgressiveRaytracer refines a frame over multiple passes by accumulating
// samples into per-pixel sums
type ProgressiveRaytracer struct {
	raytracer     *Raytracer
	camera        *Camera
	width, height int
	seed          int64
	workers       int
	config        ProgressiveConfig
	currentPass   int            // Last completed pass
	pixelStats    [][]PixelStats // Shared pixel statistics array
	logger        core.Logger
}

// NewProgressiveRaytracer creates a new progressive raytracer. Options.Samples is ignored;
// the sample schedule comes from config.
func NewProgressiveRaytracer(world geometry.Shape, camera *Camera, opts Options, config ProgressiveConfig, logger core.Logger) (*ProgressiveRaytracer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, opts.Width, opts.Height)
	}
	if config.MaxPasses <= 0 || config.MaxSamplesPerPixel <= 0 {
		return nil, fmt.Errorf("%w: %d passes up to %d samples", ErrInvalidDimensions, config.MaxPasses, config.MaxSamplesPerPixel)
	}
	config.InitialSamples = max(1, min(config.InitialSamples, config.MaxSamplesPerPixel))
	if logger == nil {
		logger = core.NopLogger{}
	}

	return &ProgressiveRaytracer{
		raytracer:  NewRaytracer(world, backgroundFor(opts.Environment), opts.MaxDepth),
		camera:     camera,
		width:      opts.Width,
		height:     opts.Height,
		seed:       opts.Seed,
		workers:    opts.Workers,
		config:     config,
		pixelStats: newPixelStats(opts.Width, opts.Height),
		logger:     logger,
	}, nil
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// For multiple passes: first pass is quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber >= pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return min(targetSamples, pr.config.MaxSamplesPerPixel)
}

// CurrentPass returns the last completed pass (0 before any pass)
func (pr *ProgressiveRaytracer) CurrentPass() int {
	return pr.currentPass
}

// Pixels returns the gamma-encoded image of the samples accumulated so far
func (pr *ProgressiveRaytracer) Pixels() []core.Color {
	return resolvePixels(pr.pixelStats)
}

// Finished reports whether every configured pass has been rendered
func (pr *ProgressiveRaytracer) Finished() bool {
	return pr.currentPass >= pr.config.MaxPasses
}

// RenderPass renders a single progressive pass using parallel processing
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int) (PassResult, error) {
	targetSamples := pr.getSamplesForPass(passNumber)

	pool := NewWorkerPool(pr.raytracer, pr.camera, pr.width, pr.height, pr.workers)
	pr.logger.Printf("Pass %d: Target %d samples per pixel (using %d workers)...\n",
		passNumber, targetSamples, pool.GetNumWorkers())

	startTime := time.Now()
	pool.Start(ctx)
	passSeed := pr.seed + int64(passNumber)*int64(pr.height)
	bounces, err := renderRows(pool, pr.pixelStats, targetSamples, func(y int) int64 {
		return passSeed + int64(y)
	})
	pool.Stop()
	if err != nil {
		return PassResult{}, err
	}
	pr.currentPass = passNumber

	result := PassResult{
		PassNumber: passNumber,
		Pixels:     resolvePixels(pr.pixelStats),
		Stats:      summarize(pr.pixelStats, targetSamples, bounces),
		Elapsed:    time.Since(startTime),
	}
	result.IsLast = passNumber >= pr.config.MaxPasses || result.Stats.MinSamples >= pr.config.MaxSamplesPerPixel
	if pr.config.Snapshots {
		state := pr.Snapshot()
		result.State = &state
	}
	return result, nil
}

// RenderProgressive renders with channel-based communication. Passes continue
// from the last completed pass, so a restored render resumes where it stopped.
// The caller should read from both channels until they are closed.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)

		for pass := pr.currentPass + 1; pass <= pr.config.MaxPasses; pass++ {
			// Check if the caller went away before starting this pass
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			result, err := pr.RenderPass(ctx, pass)
			if err != nil {
				errChan <- err
				return
			}

			pr.logger.Printf("Pass %d completed in %v (actual: %d samples/pixel)\n",
				pass, result.Elapsed, int(result.Stats.AverageSamples))

			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if result.IsLast {
				break
			}
		}
	}()

	return passChan, errChan
}

// Snapshot copies the accumulated samples
func (pr *ProgressiveRaytracer) Snapshot() AccumulationState {
	pixels := make([]PixelStats, 0, pr.width*pr.height)
	for y := range pr.pixelStats {
		pixels = append(pixels, pr.pixelStats[y]...)
	}
	return AccumulationState{
		Width:  pr.width,
		Height: pr.height,
		Pass:   pr.currentPass,
		Seed:   pr.seed,
		Pixels: pixels,
	}
}

// Restore replaces the accumulated samples with a snapshot of the same size
func (pr *ProgressiveRaytracer) Restore(state AccumulationState) error {
	if state.Width != pr.width || state.Height != pr.height || len(state.Pixels) != pr.width*pr.height {
		return fmt.Errorf("%w: snapshot is %dx%d (%d pixels), render is %dx%d",
			ErrInvalidDimensions, state.Width, state.Height, len(state.Pixels), pr.width, pr.height)
	}
	for y := range pr.pixelStats {
		copy(pr.pixelStats[y], state.Pixels[y*pr.width:(y+1)*pr.width])
	}
	pr.currentPass = state.Pass
	pr.seed = state.Seed
	return nil
}
