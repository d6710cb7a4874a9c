// Package log provides structured logging for kondate.
//
// A small Logger interface backed by Go's stdlib slog keeps logging
// testable: subsystems accept a Logger via functional options and fall
// back to a process-wide default configured in main().
//
// Diagnostic output goes to stderr; API responses and event streams are
// the user-facing surface and never go through this package.
package log

import (
	"io"
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Method signatures mirror slog for easy integration.
type Logger interface {
	// Debug logs at DEBUG level: internal state such as tool dispatch
	// decisions or SQL timings, useful only when troubleshooting.
	Debug(msg string, args ...any)

	// Info logs at INFO level: operational context like "edit turn
	// started" or "version committed".
	Info(msg string, args ...any)

	// Warn logs at WARN level: recoverable issues like a failed
	// version-naming call that degrades to an unnamed version.
	Warn(msg string, args ...any)

	// Error logs at ERROR level: failures that abort the operation.
	Error(msg string, args ...any)

	// With returns a Logger that includes the given key-value pairs
	// in every subsequent entry.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewText creates a Logger writing human-readable lines to w at the
// given minimum level. Convenience for main() and tests.
func NewText(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// noopLogger discards all log output.
type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
// Returns a noop logger if SetDefault has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. Called once in main() after
// parsing verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
