package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	return logger, &buf
}

func TestLoggerTagsComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentStore)

	logger.Info("partition loaded", FieldMonthKey, "2024-03")

	out := buf.String()
	if !strings.Contains(out, "component=store") {
		t.Errorf("component tag missing: %s", out)
	}
	if !strings.Contains(out, "month_key=2024-03") {
		t.Errorf("field missing: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentApp)
	workerLogger := logger.WithComponent(ComponentWorker)

	if workerLogger.Component() != ComponentWorker {
		t.Errorf("Component = %q, want worker", workerLogger.Component())
	}

	workerLogger.Warn("sweep failed")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Errorf("component tag missing: %s", buf.String())
	}
}

func TestWithKeepsComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentHTTP)
	logger.With(FieldRequestID, "req_1").Error("request failed")

	out := buf.String()
	if !strings.Contains(out, "request_id=req_1") || !strings.Contains(out, "component=http") {
		t.Errorf("attributes lost: %s", out)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Component != ComponentApp {
		t.Errorf("Component = %q, want app", cfg.Component)
	}
	if cfg.Level != slog.LevelInfo {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
}
