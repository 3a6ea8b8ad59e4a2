package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/imageio"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// SSEEvent represents a unified event for thread-safe writing. Data is JSON.
type SSEEvent struct {
	Type string `json:"type"` // "started", "console", "passComplete", "error", "complete"
	Data string `json:"data"`
}

// StartedUpdate announces a new render job
type StartedUpdate struct {
	JobID       string `json:"jobId"`
	Scene       string `json:"scene"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TotalPasses int    `json:"totalPasses"`
}

// PassUpdate represents a single progressive pass
type PassUpdate struct {
	JobID          string  `json:"jobId"`
	PassNumber     int     `json:"passNumber"`
	TotalPasses    int     `json:"totalPasses"`
	ImageData      string  `json:"imageData"` // Base64 encoded PNG
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	TotalBounces   int     `json:"totalBounces"`
	PrimitiveCount int     `json:"primitiveCount"`
	IsComplete     bool    `json:"isComplete"`
}

// MessageUpdate carries the text of error and completion events
type MessageUpdate struct {
	JobID   string `json:"jobId,omitempty"`
	Message string `json:"message"`
}

// handleRender handles progressive rendering with pass streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	events, done := startEventWriter(func(event SSEEvent) error {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			return err
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		return nil
	})

	req, err := s.parseRenderRequest(r)
	if err != nil {
		emit(events, "error", MessageUpdate{Message: fmt.Sprintf("Invalid request: %v", err)})
	} else {
		s.runRender(r.Context(), req, events)
	}

	close(events)
	<-done
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// startEventWriter drains events in a single goroutine (thread-safe).
// After the first write error the remaining events are discarded, so
// senders never block. done is closed once events is closed and drained.
func startEventWriter(write func(SSEEvent) error) (chan SSEEvent, <-chan struct{}) {
	events := make(chan SSEEvent, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		failed := false
		for event := range events {
			if failed {
				continue
			}
			if err := write(event); err != nil {
				// Client disconnected during write
				failed = true
			}
		}
	}()

	return events, done
}

// emit marshals payload and queues it
func emit(events chan<- SSEEvent, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(MessageUpdate{Message: err.Error()})
		eventType = "error"
	}
	events <- SSEEvent{Type: eventType, Data: string(data)}
}

// runRender performs one progressive render job, queueing every event on
// events. It returns once the job is finished and nothing else will be queued.
func (s *Server) runRender(ctx context.Context, req *RenderRequest, events chan<- SSEEvent) {
	job, jobCtx := s.registerJob(ctx, req)
	defer s.finishJob(job)

	// Setup console logging and streaming
	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewWebLogger(job.ID, consoleChan, s.logger)
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		for msg := range consoleChan {
			emit(events, "console", msg)
		}
	}()
	// Console lines are flushed before the final event so it stays last
	flushConsole := sync.OnceFunc(func() {
		close(consoleChan)
		consoleWG.Wait()
	})
	defer flushConsole()

	emit(events, "started", StartedUpdate{
		JobID:       job.ID,
		Scene:       req.Scene,
		Width:       req.Width,
		Height:      req.Height,
		TotalPasses: req.MaxPasses,
	})

	raytracer, primitiveCount, err := s.setupRenderingPipeline(req, logger)
	if err != nil {
		flushConsole()
		emit(events, "error", MessageUpdate{JobID: job.ID, Message: err.Error()})
		return
	}

	startTime := time.Now()
	passChan, errChan := raytracer.RenderProgressive(jobCtx)

	for passChan != nil || errChan != nil {
		select {
		case pass, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			job.setPass(pass.PassNumber)
			update, err := s.passUpdate(job, req, pass, primitiveCount, startTime)
			if err != nil {
				logger.Errorf("Error encoding pass %d: %v", pass.PassNumber, err)
				continue
			}
			emit(events, "passComplete", update)

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err == nil {
				continue
			}
			flushConsole()
			switch {
			case job.wasCancelled():
				emit(events, "error", MessageUpdate{JobID: job.ID, Message: "Rendering cancelled"})
			case errors.Is(err, context.Canceled) && ctx.Err() != nil:
				// Client disconnected
				s.logger.Infof("Render job %s abandoned by client", job.ID)
			default:
				emit(events, "error", MessageUpdate{JobID: job.ID, Message: fmt.Sprintf("Rendering failed: %v", err)})
			}
			return
		}
	}

	flushConsole()
	emit(events, "complete", MessageUpdate{JobID: job.ID, Message: "Rendering completed"})
}

// setupRenderingPipeline creates the scene and progressive raytracer for a request
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger core.Logger) (*renderer.ProgressiveRaytracer, int, error) {
	sceneObj, err := s.createScene(req.Scene, logger)
	if err != nil {
		return nil, 0, err
	}
	if len(sceneObj.Animations) > 0 {
		sceneObj = sceneObj.AtFrame(req.Frame)
	}

	opts := renderer.Options{
		Width:       req.Width,
		Height:      req.Height,
		MaxDepth:    req.MaxDepth,
		Workers:     s.config.Workers,
		Seed:        req.Seed,
		Environment: sceneObj.Environment,
		Logger:      logger,
	}
	config := renderer.ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: req.MaxSamples,
		MaxPasses:          req.MaxPasses,
	}

	camera := sceneObj.Camera(float64(req.Width) / float64(req.Height))
	raytracer, err := renderer.NewProgressiveRaytracer(sceneObj, camera, opts, config, logger)
	if err != nil {
		return nil, 0, err
	}
	return raytracer, sceneObj.GetPrimitiveCount(), nil
}

// passUpdate converts a pass result into its wire form
func (s *Server) passUpdate(job *renderJob, req *RenderRequest, pass renderer.PassResult, primitiveCount int, startTime time.Time) (PassUpdate, error) {
	imageData, err := pixelsToBase64PNG(pass.Pixels, req.Width, req.Height)
	if err != nil {
		return PassUpdate{}, err
	}

	return PassUpdate{
		JobID:          job.ID,
		PassNumber:     pass.PassNumber,
		TotalPasses:    req.MaxPasses,
		ImageData:      imageData,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalPixels:    pass.Stats.TotalPixels,
		TotalSamples:   pass.Stats.TotalSamples,
		AverageSamples: pass.Stats.AverageSamples,
		MinSamples:     pass.Stats.MinSamples,
		MaxSamplesUsed: pass.Stats.MaxSamplesUsed,
		TotalBounces:   pass.Stats.TotalBounces,
		PrimitiveCount: primitiveCount,
		IsComplete:     pass.IsLast,
	}, nil
}

// pixelsToBase64PNG converts a color buffer to base64-encoded PNG
func pixelsToBase64PNG(pixels []core.Color, width, height int) (string, error) {
	img, err := imageio.ToRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, img, "png"); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
