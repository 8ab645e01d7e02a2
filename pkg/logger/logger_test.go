package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huynhanx03/recurvedb/pkg/settings"
)

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recurve.log")
	log, err := New(settings.Logger{LogLevel: "warn", FileLogName: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), raw)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "kept" || entry["level"] != "warn" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "", wantErr: false},
		{level: "debug", wantErr: false},
		{level: "error", wantErr: false},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := New(settings.Logger{LogLevel: tt.level})
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}
