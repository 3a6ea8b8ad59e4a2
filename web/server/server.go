package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

// Request limits shared by every endpoint
const (
	minDimension = 16
	maxDimension = 2000
	maxSamples   = 10000
	maxPasses    = 10000
)

// Config contains the server settings
type Config struct {
	Addr        string      // Listen address, e.g. ":8080"
	ScenesDir   string      // Directory scanned for OBJ scenes
	StaticDir   string      // Served at "/" when non-empty
	Environment string      // Optional environment map applied to every scene
	Workers     int         // Render workers per job (0 = CPU count)
	Logger      core.Logger // Server log; nil discards output
}

// Server handles web requests for the raytracer
type Server struct {
	config      Config
	logger      core.Logger
	environment material.PixelSource

	mu   sync.Mutex
	jobs map[string]*renderJob
}

// NewServer creates a new web server. The environment map, if configured,
// is loaded once up front.
func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = core.NopLogger{}
	}

	s := &Server{
		config: config,
		logger: logger,
		jobs:   make(map[string]*renderJob),
	}

	if config.Environment != "" {
		env, err := loaders.LoadImage(config.Environment)
		if err != nil {
			return nil, fmt.Errorf("environment map: %w", err)
		}
		s.environment = env
	}

	return s, nil
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/scenes", s.handleScenes)
	mux.HandleFunc("GET /api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("GET /api/render", s.handleRender)
	mux.HandleFunc("GET /api/ws/render", s.handleWebSocketRender)
	mux.HandleFunc("GET /api/inspect", s.handleInspect)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleCancelJob)

	return mux
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting web server on %s", s.config.Addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.cancelAllJobs()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"activeJobs": s.activeJobCount(),
	})
}

// handleScenes lists the built-in and OBJ scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.config.ScenesDir, s.logger)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = scene.BuiltinNames()[0]
	}

	sceneObj, err := s.createScene(sceneName, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	camera := sceneObj.CameraConfig
	response := map[string]interface{}{
		"scene": sceneName,
		"defaults": map[string]interface{}{
			"samplesPerPixel": sceneObj.SamplingConfig.SamplesPerPixel,
			"maxDepth":        sceneObj.SamplingConfig.MaxDepth,
			"aspectRatio":     camera.AspectRatio,
			"vfov":            camera.VFov,
			"aperture":        camera.Aperture,
			"primitiveCount":  sceneObj.GetPrimitiveCount(),
			"animated":        len(sceneObj.Animations) > 0,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": minDimension, "max": maxDimension},
			"height":     map[string]int{"min": minDimension, "max": maxDimension},
			"maxSamples": map[string]int{"min": 1, "max": maxSamples},
			"maxPasses":  map[string]int{"min": 1, "max": maxPasses},
			"maxDepth":   map[string]int{"min": 1, "max": renderer.MaxDepth},
		},
	}

	writeJSON(w, http.StatusOK, response)
}

// createScene loads a scene by name with the server's environment map.
// OBJ scenes must live directly inside the configured scenes directory.
func (s *Server) createScene(name string, logger core.Logger) (*scene.Scene, error) {
	if logger == nil {
		logger = s.logger
	}
	if path, ok := strings.CutPrefix(name, "obj:"); ok {
		resolved, err := s.resolveOBJPath(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", scene.ErrUnknownScene, name)
		}
		name = "obj:" + resolved
	}
	return scene.Load(name, scene.LoadOptions{
		Environment: s.environment,
		Logger:      logger,
	})
}

// resolveOBJPath maps a client supplied OBJ path onto a file directly inside
// ScenesDir. Nothing is opened before the path has been checked.
func (s *Server) resolveOBJPath(path string) (string, error) {
	if s.config.ScenesDir == "" || path == "" {
		return "", errors.New("obj scenes are disabled")
	}
	dir, err := filepath.Abs(s.config.ScenesDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	if filepath.Dir(abs) != dir || !strings.EqualFold(filepath.Ext(abs), ".obj") {
		return "", fmt.Errorf("%s is outside the scenes directory", path)
	}
	return abs, nil
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene name (e.g., "materials")
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	MaxSamples int    `json:"maxSamples"` // Maximum samples per pixel
	MaxPasses  int    `json:"maxPasses"`  // Maximum number of passes
	MaxDepth   int    `json:"maxDepth"`   // Bounce cap
	Seed       int64  `json:"seed"`       // Base seed
	Frame      int    `json:"frame"`      // Animation frame to render
}

// parseCommonSceneParams parses the scene name and image size shared by render and inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = scene.BuiltinNames()[0]
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, minDimension, maxDimension); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 225, minDimension, maxDimension); err != nil {
		return err
	}
	if req.Frame, err = parseIntParam(query, "frame", 0, -100000, 100000); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", 50, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", 7, 1, maxPasses); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", renderer.MaxDepth, 1, renderer.MaxDepth); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", 42, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)

	if req.MaxPasses > req.MaxSamples {
		req.MaxPasses = req.MaxSamples
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		s.logger.Warnf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
