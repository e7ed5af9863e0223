package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("mapped", "framework", "soc2")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if rec["msg"] != "mapped" || rec["framework"] != "soc2" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewTextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Errorf("output = %q", out)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}, nil); err == nil {
		t.Error("expected level error")
	}
	if _, err := New(Config{Format: "xml"}, nil); err == nil {
		t.Error("expected format error")
	}
}
