package renderer

import (
	"context"
	"runtime"
	"sync"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// RowTask represents a row rendering task for the worker pool
type RowTask struct {
	Y             int          // Image row, 0 is the top
	TargetSamples int          // Total samples each pixel should hold after the task
	Seed          int64        // Seed for the row's private random stream
	Row           []PixelStats // Shared pixel stats for this row; rows never overlap
}

// RowResult contains the result from rendering a row
type RowResult struct {
	Y       int
	Bounces int
	Error   error
}

// WorkerPool manages parallel row rendering
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	raytracer   *Raytracer
	camera      *Camera
	width       int
	height      int
	taskQueue   chan RowTask
	resultQueue chan RowResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// A non-positive count uses one worker per CPU.
func NewWorkerPool(raytracer *Raytracer, camera *Camera, width, height, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, height),   // Buffer for all rows
		resultQueue: make(chan RowResult, height), // Buffer for all results
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			raytracer:   raytracer,
			camera:      camera,
			width:       width,
			height:      height,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers. Rows picked up after ctx is done are skipped
// and reported with the context's error.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed row result
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- RowResult{Y: task.Y, Error: err}
			continue
		}

		sampler := core.NewSeededSampler(task.Seed)
		bounces := w.raytracer.RenderRow(w.camera, task.Y, w.width, w.height, task.TargetSamples, task.Row, sampler)

		w.resultQueue <- RowResult{Y: task.Y, Bounces: bounces}
	}
}

// renderRows submits every row to the pool and waits for all of them.
// It returns the total bounce count or the first error reported.
func renderRows(pool *WorkerPool, pixelStats [][]PixelStats, targetSamples int, seedFor func(y int) int64) (int, error) {
	for y := range pixelStats {
		pool.SubmitTask(RowTask{
			Y:             y,
			TargetSamples: targetSamples,
			Seed:          seedFor(y),
			Row:           pixelStats[y],
		})
	}

	var firstErr error
	bounces := 0
	for range pixelStats {
		result, ok := pool.GetResult()
		if !ok {
			return bounces, errPoolClosed
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		bounces += result.Bounces
	}
	return bounces, firstErr
}
