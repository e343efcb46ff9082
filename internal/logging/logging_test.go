package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seanpm2001/atom/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"WARNING", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestNew(t *testing.T) {
	for _, dev := range []bool{false, true} {
		logger, err := New(config.LogConfig{Level: "warn", Development: dev})
		if err != nil {
			t.Fatalf("New(development=%v): %v", dev, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("development=%v: info enabled at warn level", dev)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Errorf("development=%v: warn disabled at warn level", dev)
		}
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, zapcore.InfoLevel)

	logger.Debug("hidden")
	logger.Info("loaded", zap.Int("classes", 3))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "loaded") || !strings.Contains(out, `"classes": 3`) {
		t.Errorf("output = %q", out)
	}
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Component(zap.New(core), "watcher").Info("started")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["component"]; got != "watcher" {
		t.Errorf("component = %v, want watcher", got)
	}

	// A nil logger yields a usable no-op.
	Component(nil, "x").Info("dropped")
}
