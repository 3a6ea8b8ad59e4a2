package server

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// renderJob tracks one running render so it can be listed and cancelled
type renderJob struct {
	ID          string
	Scene       string
	Width       int
	Height      int
	TotalPasses int
	StartedAt   time.Time

	cancel context.CancelFunc

	mu        sync.Mutex
	pass      int
	cancelled bool
}

// JobInfo is the JSON view of a running render
type JobInfo struct {
	ID          string    `json:"id"`
	Scene       string    `json:"scene"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Pass        int       `json:"pass"`
	TotalPasses int       `json:"totalPasses"`
	StartedAt   time.Time `json:"startedAt"`
}

func (j *renderJob) setPass(pass int) {
	j.mu.Lock()
	j.pass = pass
	j.mu.Unlock()
}

// stop cancels the job and remembers that it was asked to
func (j *renderJob) stop() {
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
	j.cancel()
}

func (j *renderJob) wasCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

func (j *renderJob) info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobInfo{
		ID:          j.ID,
		Scene:       j.Scene,
		Width:       j.Width,
		Height:      j.Height,
		Pass:        j.pass,
		TotalPasses: j.TotalPasses,
		StartedAt:   j.StartedAt,
	}
}

// registerJob creates a job with a fresh ID whose context is derived from ctx
func (s *Server) registerJob(ctx context.Context, req *RenderRequest) (*renderJob, context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &renderJob{
		ID:          uuid.NewString(),
		Scene:       req.Scene,
		Width:       req.Width,
		Height:      req.Height,
		TotalPasses: req.MaxPasses,
		StartedAt:   time.Now(),
		cancel:      cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job, jobCtx
}

// finishJob removes the job and releases its context
func (s *Server) finishJob(job *renderJob) {
	s.mu.Lock()
	delete(s.jobs, job.ID)
	s.mu.Unlock()
	job.cancel()
}

func (s *Server) activeJobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Server) cancelAllJobs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		job.stop()
	}
}

// handleListJobs lists the running renders, oldest first
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.info())
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.Before(jobs[j].StartedAt)
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// handleCancelJob cancels a running render by ID
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown job: " + id})
		return
	}

	job.stop()
	s.logger.Infof("Cancelled render job %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "id": id})
}
