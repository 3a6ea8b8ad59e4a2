package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultWidth is the output width in pixels.
	DefaultWidth = 400
	// DefaultHeight is the output height in pixels.
	DefaultHeight = 225
	// DefaultSamples is the number of samples per pixel.
	DefaultSamples = 100
	// DefaultMaxDepth caps the number of bounces per path.
	DefaultMaxDepth = 50
	// DefaultPasses is the number of progressive passes; 1 renders a single frame.
	DefaultPasses = 1
	// DefaultScene is the scene rendered when none is named.
	DefaultScene = "spheres"
	// DefaultOutput is where the CLI writes its image.
	DefaultOutput = "output/render.png"
	// DefaultSeed seeds the per-row random streams.
	DefaultSeed int64 = 42
	// DefaultLogLevel controls logger verbosity.
	DefaultLogLevel = "info"
	// DefaultWebAddr is the address the web server listens on.
	DefaultWebAddr = ":8080"
	// DefaultScenesDir is scanned for OBJ scene files.
	DefaultScenesDir = "scenes"
)

// ErrInvalidConfig wraps every configuration problem found by Load or Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config captures all runtime tunables for the CLI and the web server.
type Config struct {
	Width         int
	Height        int
	Samples       int
	MaxDepth      int
	Workers       int // 0 = CPU count
	Passes        int
	Seed          int64
	Scene         string
	Environment   string // Optional environment map image
	Texture       string // Optional texture image for the textured scene
	Output        string
	LogLevel      string
	CheckpointDir string // Empty disables checkpointing
	WebAddr       string
	ScenesDir     string
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Samples:   DefaultSamples,
		MaxDepth:  DefaultMaxDepth,
		Passes:    DefaultPasses,
		Seed:      DefaultSeed,
		Scene:     DefaultScene,
		Output:    DefaultOutput,
		LogLevel:  DefaultLogLevel,
		WebAddr:   DefaultWebAddr,
		ScenesDir: DefaultScenesDir,
	}
}

// Load reads the configuration from RT_* environment variables, applying
// defaults and returning every invalid override in a single error.
func Load() (*Config, error) {
	cfg := Default()
	cfg.Scene = getString("RT_SCENE", cfg.Scene)
	cfg.Environment = strings.TrimSpace(os.Getenv("RT_ENVIRONMENT"))
	cfg.Texture = strings.TrimSpace(os.Getenv("RT_TEXTURE"))
	cfg.Output = getString("RT_OUTPUT", cfg.Output)
	cfg.LogLevel = getString("RT_LOG_LEVEL", cfg.LogLevel)
	cfg.CheckpointDir = strings.TrimSpace(os.Getenv("RT_CHECKPOINT_DIR"))
	cfg.WebAddr = getString("RT_WEB_ADDR", cfg.WebAddr)
	cfg.ScenesDir = getString("RT_SCENES_DIR", cfg.ScenesDir)

	var problems []string

	intVars := []struct {
		key      string
		target   *int
		positive bool
	}{
		{"RT_WIDTH", &cfg.Width, true},
		{"RT_HEIGHT", &cfg.Height, true},
		{"RT_SAMPLES", &cfg.Samples, true},
		{"RT_MAX_DEPTH", &cfg.MaxDepth, true},
		{"RT_WORKERS", &cfg.Workers, false},
		{"RT_PASSES", &cfg.Passes, true},
	}
	for _, v := range intVars {
		raw := strings.TrimSpace(os.Getenv(v.key))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		switch {
		case err != nil || value < 0:
			problems = append(problems, fmt.Sprintf("%s must be a non-negative integer, got %q", v.key, raw))
		case v.positive && value == 0:
			problems = append(problems, fmt.Sprintf("%s must be a positive integer, got %q", v.key, raw))
		default:
			*v.target = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RT_SEED")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RT_SEED must be an integer, got %q", raw))
		} else {
			cfg.Seed = value
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return cfg, nil
}

// BindFlags registers command line flags that override the loaded values
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "Image width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "Image height in pixels")
	fs.IntVar(&c.Samples, "samples", c.Samples, "Samples per pixel")
	fs.IntVar(&c.MaxDepth, "max-depth", c.MaxDepth, "Maximum bounces per path")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Parallel workers (0 = CPU count)")
	fs.IntVar(&c.Passes, "passes", c.Passes, "Progressive passes (1 = single frame)")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed")
	fs.StringVar(&c.Scene, "scene", c.Scene, "Scene name: spheres, materials, mirrors, textured or obj:<path>")
	fs.StringVar(&c.Environment, "env", c.Environment, "Environment map image (png, jpeg, bmp, tiff)")
	fs.StringVar(&c.Texture, "texture", c.Texture, "Texture image for the textured scene")
	fs.StringVar(&c.Output, "output", c.Output, "Output image path; the extension picks the format")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&c.CheckpointDir, "checkpoint-dir", c.CheckpointDir, "Directory for resumable progressive checkpoints")
	fs.StringVar(&c.WebAddr, "addr", c.WebAddr, "Web server listen address")
	fs.StringVar(&c.ScenesDir, "scenes-dir", c.ScenesDir, "Directory scanned for OBJ scenes")
}

// Validate reports every out-of-range value at once
func (c *Config) Validate() error {
	var problems []string
	if c.Width <= 0 || c.Height <= 0 {
		problems = append(problems, fmt.Sprintf("image size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Samples <= 0 {
		problems = append(problems, fmt.Sprintf("samples must be positive, got %d", c.Samples))
	}
	if c.MaxDepth <= 0 {
		problems = append(problems, fmt.Sprintf("max depth must be positive, got %d", c.MaxDepth))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must be non-negative, got %d", c.Workers))
	}
	if c.Passes <= 0 {
		problems = append(problems, fmt.Sprintf("passes must be positive, got %d", c.Passes))
	}
	if c.Passes > c.Samples {
		problems = append(problems, fmt.Sprintf("passes (%d) cannot exceed samples (%d)", c.Passes, c.Samples))
	}
	if strings.TrimSpace(c.Scene) == "" {
		problems = append(problems, "scene must be provided")
	}
	if strings.TrimSpace(c.Output) == "" {
		problems = append(problems, "output must be provided")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
