package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" or "error" onto a Level; anything else is info
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultLogger writes info and debug lines to stdout and warnings and errors to stderr
type DefaultLogger struct {
	level  Level
	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger creates a logger; debug output is dropped unless enabled
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	level := LevelInfo
	if debug {
		level = LevelDebug
	}
	return newLogger(prefix, level, os.Stdout, os.Stderr)
}

// NewLevelLogger creates a logger that drops messages below the named level
func NewLevelLogger(prefix, level string) *DefaultLogger {
	return newLogger(prefix, ParseLevel(level), os.Stdout, os.Stderr)
}

func newLogger(prefix string, level Level, out, err io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		level:  level,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(err, "", flags),
	}
}

func (l *DefaultLogger) enabled(level Level) bool {
	return level >= l.level
}

func (l *DefaultLogger) prefixf(level string, format string, args ...interface{}) string {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	}
	return fmt.Sprintf("%s: %s", level, msg)
}

// Printf logs progress output at info level
func (l *DefaultLogger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

func (l *DefaultLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.out.Print(l.prefixf("DEBUG", format, args...))
	}
}

func (l *DefaultLogger) Infof(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.out.Print(l.prefixf("INFO", format, args...))
	}
}

func (l *DefaultLogger) Warnf(format string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.err.Print(l.prefixf("WARN", format, args...))
	}
}

func (l *DefaultLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.err.Print(l.prefixf("ERROR", format, args...))
	}
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}
func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Warnf(string, ...interface{})  {}
func (NopLogger) Errorf(string, ...interface{}) {}
