package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestComponentLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LogConfig{Level: LevelDebug, Format: "json"})

	l.WithComponent("rows").Error("matrix fill aborted", errors.New("deadline exceeded"), Int("rows", 12))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "matrix fill aborted" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "rows" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["error"] != "deadline exceeded" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["rows"] != float64(12) {
		t.Errorf("rows = %v", entry["rows"])
	}
	if _, ok := entry["caller"]; !ok {
		t.Errorf("expected caller on error level entries")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LogConfig{Level: LevelWarn, Format: "text"})
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Fatalf("expected warn entry")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	if l.Enabled(LevelError) {
		t.Fatalf("nop logger should not enable error level")
	}
	l.Error("ignored", nil)
}
