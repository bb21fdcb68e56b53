package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/oggyb/campus-match/internal/config"
)

// captureInit points the global logger at a buffer for the duration of a test.
func captureInit(t *testing.T, c Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	c.Output = &buf
	Init(&c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })
	return &buf
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureInit(t, Config{Level: "debug", Format: FormatText, Component: "test"})
	Info("hello campus", "key", "value")

	s := out.String()
	if !strings.Contains(s, "hello campus") {
		t.Errorf("expected message, got: %s", s)
	}
	if !strings.Contains(s, "component=test") {
		t.Errorf("expected component field, got: %s", s)
	}
	if !strings.Contains(s, "key=value") {
		t.Errorf("expected structured field, got: %s", s)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureInit(t, Config{Level: "info", Format: FormatJSON, Component: "json_test"})
	Info("json log", "foo", "bar")

	s := out.String()
	if !strings.Contains(s, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", s)
	}
	if !strings.Contains(s, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", s)
	}
	if !strings.Contains(s, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", s)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := captureInit(t, Config{Level: "error", Format: FormatText})
	Info("should not appear")
	Error("should appear")

	s := out.String()
	if strings.Contains(s, "should not appear") {
		t.Errorf("info log should not appear, got: %s", s)
	}
	if !strings.Contains(s, "should appear") {
		t.Errorf("error log should appear, got: %s", s)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := captureInit(t, Config{Level: "debug", Format: FormatText})
	With("req_id", "123").Info("processing request")

	if !strings.Contains(out.String(), "req_id=123") {
		t.Errorf("expected req_id field, got: %s", out.String())
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	cfg.Log.Component = "cfg_test"

	InitFromConfig(cfg)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	if !L().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level from config")
	}
}

func TestNew_DoesNotReplaceGlobal(t *testing.T) {
	global := captureInit(t, Config{Level: "info", Format: FormatText})

	var local bytes.Buffer
	New(Config{Level: "info", Format: FormatText, Output: &local}).Info("local only")

	if strings.Contains(global.String(), "local only") {
		t.Errorf("standalone logger wrote to global output: %s", global.String())
	}
	if !strings.Contains(local.String(), "local only") {
		t.Errorf("expected local output, got: %s", local.String())
	}
}
