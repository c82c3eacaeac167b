package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Output: &buf})

	l.Info("session started", "pose", "vrksasana")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "session started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["pose"] != "vrksasana" {
		t.Errorf("pose = %v", entry["pose"])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: "text", Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestConfigure_ReplacesGlobal(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", Format: "text", Output: &buf})
	defer Configure(Options{Level: "info"})

	Debug("tick", "seq", 1)

	if !strings.Contains(buf.String(), "tick") {
		t.Errorf("expected debug line in global logger output, got %q", buf.String())
	}
}
