package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	JobID     string    `json:"jobId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
// and forwarding them to the server log
type WebLogger struct {
	jobID       string
	consoleChan chan<- ConsoleMessage
	base        core.Logger
}

// NewWebLogger creates a new web logger for a specific render job.
// base may be nil.
func NewWebLogger(jobID string, consoleChan chan<- ConsoleMessage, base core.Logger) *WebLogger {
	if base == nil {
		base = core.NopLogger{}
	}
	return &WebLogger{
		jobID:       jobID,
		consoleChan: consoleChan,
		base:        base,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	wl.base.Printf(format, args...)
	wl.send("info", format, args...)
}

// Debugf implements core.Logger interface
func (wl *WebLogger) Debugf(format string, args ...interface{}) {
	wl.base.Debugf(format, args...)
	wl.send("debug", format, args...)
}

// Infof implements core.Logger interface
func (wl *WebLogger) Infof(format string, args ...interface{}) {
	wl.base.Infof(format, args...)
	wl.send("info", format, args...)
}

// Warnf implements core.Logger interface
func (wl *WebLogger) Warnf(format string, args ...interface{}) {
	wl.base.Warnf(format, args...)
	wl.send("warning", format, args...)
}

// Errorf implements core.Logger interface
func (wl *WebLogger) Errorf(format string, args ...interface{}) {
	wl.base.Errorf(format, args...)
	wl.send("error", format, args...)
}

// send delivers to the console channel without blocking; messages are dropped when it is full
func (wl *WebLogger) send(level, format string, args ...interface{}) {
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		JobID:     wl.jobID,
		Message:   strings.TrimRight(fmt.Sprintf(format, args...), "\n"),
		Timestamp: time.Now(),
		Level:     level,
	}:
	default:
		// Channel full, skip (don't block)
	}
}
