package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-recursive-raytracer/internal/config"
	"github.com/df07/go-recursive-raytracer/pkg/animate"
	"github.com/df07/go-recursive-raytracer/pkg/checkpoint"
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/imageio"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions are the flags that only make sense for a single CLI invocation
type cliOptions struct {
	animate bool
	runID   string
	list    bool
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var cli cliOptions
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stdout)
	cfg.BindFlags(fs)
	fs.BoolVar(&cli.animate, "animate", false, "Render every keyframe of an animated scene")
	fs.StringVar(&cli.runID, "resume", "", "Checkpoint run ID to resume (requires -checkpoint-dir)")
	fs.BoolVar(&cli.list, "list", false, "List available scenes and exit")
	fs.Usage = func() {
		fmt.Fprintln(stdout, "Recursive Raytracer")
		fmt.Fprintln(stdout, "Usage: raytracer [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Environment variables RT_WIDTH, RT_HEIGHT, RT_SAMPLES, RT_SCENE, ... set the defaults.")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := core.NewLevelLogger("raytracer", cfg.LogLevel)

	if cli.list {
		return listScenes(stdout, cfg.ScenesDir, logger)
	}

	selectedScene, err := createScene(cfg, logger)
	if err != nil {
		return err
	}
	logger.Infof("Scene %s: %d primitives", selectedScene.Name, selectedScene.GetPrimitiveCount())

	if cli.animate {
		return renderAnimation(ctx, cfg, selectedScene, logger)
	}
	if cfg.Passes > 1 {
		return renderProgressive(ctx, cfg, cli.runID, selectedScene, logger)
	}
	return renderFrame(ctx, cfg, selectedScene, cfg.Output, logger)
}

// createScene builds the configured scene with its optional images
func createScene(cfg *config.Config, logger core.Logger) (*scene.Scene, error) {
	opts := scene.LoadOptions{Logger: logger}

	if cfg.Environment != "" {
		env, err := loaders.LoadImage(cfg.Environment)
		if err != nil {
			return nil, fmt.Errorf("environment map: %w", err)
		}
		logger.Infof("Environment map %s: %dx%d", cfg.Environment, env.Width(), env.Height())
		opts.Environment = env
	}
	if cfg.Texture != "" {
		tex, err := loaders.LoadImage(cfg.Texture)
		if err != nil {
			return nil, fmt.Errorf("texture: %w", err)
		}
		opts.Texture = tex
	}

	return scene.Load(cfg.Scene, opts)
}

// renderOptions maps the configuration onto the renderer's options
func renderOptions(cfg *config.Config, s *scene.Scene, logger core.Logger) renderer.Options {
	return renderer.Options{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Samples:     cfg.Samples,
		MaxDepth:    cfg.MaxDepth,
		Workers:     cfg.Workers,
		Seed:        cfg.Seed,
		Environment: s.Environment,
		Logger:      logger,
	}
}

func aspect(cfg *config.Config) float64 {
	return float64(cfg.Width) / float64(cfg.Height)
}

// renderFrame traces a single frame and saves it to output
func renderFrame(ctx context.Context, cfg *config.Config, s *scene.Scene, output string, logger core.Logger) error {
	startTime := time.Now()
	pixels, err := renderer.TraceScene(ctx, renderOptions(cfg, s, logger), s.Camera(aspect(cfg)), s)
	if err != nil {
		return err
	}
	logger.Infof("Render completed in %v", time.Since(startTime))

	if err := imageio.SavePixels(output, pixels, cfg.Width, cfg.Height); err != nil {
		return err
	}
	logger.Infof("Render saved as %s", output)
	return nil
}

// renderAnimation renders every frame of the scene's keyframe range to numbered files
func renderAnimation(ctx context.Context, cfg *config.Config, s *scene.Scene, logger core.Logger) error {
	first, last, ok := s.FrameRange()
	if !ok {
		return fmt.Errorf("scene %s has no animation", s.Name)
	}
	logger.Infof("Animating frames %d-%d", first, last)

	return animate.Animate(ctx, first, last, func(ctx context.Context, frame int) error {
		return renderFrame(ctx, cfg, s.AtFrame(frame), framePath(cfg.Output, frame), logger)
	})
}

// framePath inserts a zero-padded frame number before the extension
func framePath(output string, frame int) string {
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(output, ext), frame, ext)
}

// renderProgressive refines the image over cfg.Passes passes, saving the
// image after every pass and checkpointing when a directory is configured
func renderProgressive(ctx context.Context, cfg *config.Config, runID string, s *scene.Scene, logger core.Logger) error {
	progressiveConfig := renderer.ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: cfg.Samples,
		MaxPasses:          cfg.Passes,
		Snapshots:          cfg.CheckpointDir != "",
	}

	raytracer, err := renderer.NewProgressiveRaytracer(s, s.Camera(aspect(cfg)), renderOptions(cfg, s, logger), progressiveConfig, logger)
	if err != nil {
		return err
	}

	var store *checkpoint.Store
	if cfg.CheckpointDir != "" {
		settings := checkpoint.Run{
			Scene:   cfg.Scene,
			Width:   cfg.Width,
			Height:  cfg.Height,
			Samples: cfg.Samples,
			Passes:  cfg.Passes,
		}
		store, err = checkpoint.Open(cfg.CheckpointDir, runID, settings, logger)
		if err != nil {
			return err
		}
		state, err := store.LoadSnapshot()
		switch {
		case err == nil:
			if err := raytracer.Restore(state); err != nil {
				return err
			}
			if raytracer.Finished() {
				logger.Infof("Run %s already completed all %d passes, saving restored image to %s", store.RunID(), state.Pass, cfg.Output)
				return imageio.SavePixels(cfg.Output, raytracer.Pixels(), cfg.Width, cfg.Height)
			}
			logger.Infof("Resuming run %s after pass %d", store.RunID(), state.Pass)
		case errors.Is(err, os.ErrNotExist):
			logger.Infof("Checkpointing run %s to %s", store.RunID(), store.Directory())
		default:
			return err
		}
	}

	passChan, errChan := raytracer.RenderProgressive(ctx)
	for passChan != nil || errChan != nil {
		select {
		case pass, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			if err := imageio.SavePixels(cfg.Output, pass.Pixels, cfg.Width, cfg.Height); err != nil {
				return err
			}
			if store != nil {
				if err := store.Record(pass); err != nil {
					return err
				}
			}
			logger.Infof("Pass %d: %.1f samples per pixel (range %d - %d), saved %s",
				pass.PassNumber, pass.Stats.AverageSamples, pass.Stats.MinSamples, pass.Stats.MaxSamplesUsed, cfg.Output)
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// listScenes prints the built-in scenes and the OBJ scenes found in dir
func listScenes(w io.Writer, dir string, logger core.Logger) error {
	response, err := scene.ListAllScenes(dir, logger)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			if info.Description != "" {
				fmt.Fprintf(w, "  %-24s %s\n", info.ID, info.Description)
			} else {
				fmt.Fprintf(w, "  %s\n", info.ID)
			}
		}
	}
	return nil
}
