package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelDebug)

	logger.Info("edit turn started", "recipe", "carbonara")

	output := buf.String()
	if !strings.Contains(output, "edit turn started") {
		t.Errorf("expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "recipe=carbonara") {
		t.Errorf("expected output to contain 'recipe=carbonara', got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger)
		contains string
	}{
		{name: "Debug", logFunc: func(l Logger) { l.Debug("debug msg") }, contains: "debug msg"},
		{name: "Info", logFunc: func(l Logger) { l.Info("info msg") }, contains: "info msg"},
		{name: "Warn", logFunc: func(l Logger) { l.Warn("warn msg") }, contains: "warn msg"},
		{name: "Error", logFunc: func(l Logger) { l.Error("error msg") }, contains: "error msg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewText(&buf, slog.LevelDebug)

			tt.logFunc(logger)

			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected output to contain %q, got: %s", tt.contains, output)
			}
			if !strings.Contains(output, strings.ToUpper(tt.name)) {
				t.Errorf("expected output to contain level %q, got: %s", tt.name, output)
			}
		})
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelDebug)

	child := logger.With("recipe", "ramen").With("turn", 2)
	child.Info("tool applied")

	output := buf.String()
	for _, want := range []string{"recipe=ramen", "turn=2", "tool applied"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestNewNoop(t *testing.T) {
	logger := NewNoop()

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	child := logger.With("key", "value")
	if _, ok := child.(noopLogger); !ok {
		t.Error("expected With() on noopLogger to return noopLogger")
	}
}

func TestDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	Default().Info("should not panic")

	var buf bytes.Buffer
	SetDefault(NewText(&buf, slog.LevelDebug))

	Default().Info("custom logger message")

	if !strings.Contains(buf.String(), "custom logger message") {
		t.Errorf("expected custom logger to be used, got: %s", buf.String())
	}
}

func TestDefaultLoggerConcurrency(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				Default().Info("concurrent read")
			}
			done <- true
		}()
		go func() {
			for j := 0; j < 100; j++ {
				SetDefault(NewNoop())
			}
			done <- true
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}
