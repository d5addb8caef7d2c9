package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestWithJobID(t *testing.T) {
	ctx := context.Background()
	newCtx := WithJobID(ctx, "job-123")

	if ctx.Value(JobIDKey) != nil {
		t.Error("original context should not be modified")
	}
	if got := GetJobID(newCtx); got != "job-123" {
		t.Errorf("GetJobID() = %q, want %q", got, "job-123")
	}
}

func TestGetJobID(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{"with job ID", WithJobID(context.Background(), "job-999"), "job-999"},
		{"without job ID", context.Background(), ""},
		{"empty job ID", WithJobID(context.Background(), ""), ""},
		{"nil context", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetJobID(tt.ctx); got != tt.expected {
				t.Errorf("GetJobID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetJobID_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), JobIDKey, 12345)
	if got := GetJobID(ctx); got != "" {
		t.Errorf("GetJobID() = %q, want empty for wrong type", got)
	}
}

func TestFromContext(t *testing.T) {
	logger := slog.Default()

	if got := FromContext(nil, logger); got != logger {
		t.Error("FromContext with nil context should return original logger")
	}
	if got := FromContext(context.Background(), logger); got != logger {
		t.Error("FromContext without job ID should return original logger")
	}
	if got := FromContext(WithJobID(context.Background(), "job-1"), logger); got == logger {
		t.Error("FromContext with job ID should return a new logger with attributes")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" debug ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewWithWriter_JSONWhenNotTTY(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false)

	logger.Info("hello", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v, want %q", record["msg"], "hello")
	}
	if record["key"] != "value" {
		t.Errorf("key = %v, want %q", record["key"], "value")
	}
}

func TestNewWithWriter_TextOnTTY(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true)

	logger.Info("hello")

	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected text output on TTY, got %q", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	logger := SetDefault()
	if logger == nil {
		t.Fatal("SetDefault() should return a logger")
	}
	if slog.Default() == nil {
		t.Error("slog.Default() should not be nil after SetDefault()")
	}
}
