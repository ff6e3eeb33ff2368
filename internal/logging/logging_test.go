package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
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
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.log")

	logger, closer, err := New(Config{
		Level:     "debug",
		Format:    "json",
		Output:    path,
		MaxSizeMB: 1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("odds saved", "event", "e1", "records", 6)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line is not json: %v\n%s", err, data)
	}
	if entry["msg"] != "odds saved" || entry["event"] != "e1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.log")

	logger, closer, err := New(Config{Level: "warn", Output: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("cycle complete")
	logger.Warn("mirror append failed")
	closer.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "cycle complete") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(string(data), "mirror append failed") {
		t.Error("warn message missing")
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("New() with unknown format: error = nil")
	}
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New() with unknown level: error = nil")
	}
}

func TestNew_Stdout(t *testing.T) {
	logger, closer, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("logger is nil")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
