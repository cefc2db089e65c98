package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/roster/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "roster.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hello from test")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file missing message: %s", data)
	}
}

func TestNewConsoleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.log")
	if _, err := New(config.LogConfig{Level: "debug", Format: "console", File: path}); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewWithoutFileIsNop(t *testing.T) {
	log, err := New(config.LogConfig{Level: "info"})
	if err != nil {
		t.Fatal(err)
	}
	log.Info("discarded")
}
