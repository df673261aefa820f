// Package logging provides the leveled logging sink injected into every
// component. Output goes to stderr by default; a sandbox logfile can be
// attached once per process and is appended to across invocations.
//
// Built on log/slog. The logger is configured once in main and passed down —
// components never mutate global logging state.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a leveled logger writing to stderr and, optionally, a file.
// Safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	level    *slog.LevelVar
	stderr   io.Writer
	file     *os.File
	filePath string
	slog     *slog.Logger
}

// New creates a Logger writing to stderr at the given level.
func New(level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	l := &Logger{
		level:  lv,
		stderr: os.Stderr,
	}
	l.rebuild()
	return l
}

// Default returns an info-level stderr logger.
func Default() *Logger {
	return New(slog.LevelInfo)
}

// ParseLevel converts a --log-level string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// AttachFile additionally writes log lines to path, opened in append mode.
// Attaching the same path twice is a no-op; attaching a different path
// replaces the previous file destination.
func (l *Logger) AttachFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.filePath == path {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.filePath = path
	l.rebuild()
	return nil
}

// Close releases the attached file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.filePath = ""
	l.rebuild()
	return err
}

// rebuild reinstalls the slog handler over the current destinations.
// Callers must hold l.mu (or be the constructor).
func (l *Logger) rebuild() {
	var w io.Writer = l.stderr
	if l.file != nil {
		w = io.MultiWriter(l.stderr, l.file)
	}
	l.slog = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l.level}))
}

func (l *Logger) handle() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slog
}

// Debug logs at debug level with key-value attrs.
func (l *Logger) Debug(msg string, args ...any) { l.handle().Debug(msg, args...) }

// Info logs at info level with key-value attrs.
func (l *Logger) Info(msg string, args ...any) { l.handle().Info(msg, args...) }

// Warn logs at warn level with key-value attrs.
func (l *Logger) Warn(msg string, args ...any) { l.handle().Warn(msg, args...) }

// Error logs at error level with key-value attrs.
func (l *Logger) Error(msg string, args ...any) { l.handle().Error(msg, args...) }
