package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// Global state: these tests must not run in parallel.

func initTestLogging(t *testing.T, cfg Config) string {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "test.log")
	}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = Close() })
	return cfg.Path
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"info", log.InfoLevel, false},
		{"warn", log.WarnLevel, false},
		{"warning", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"INFO", log.InfoLevel, false},
		{"trace", log.InfoLevel, true},
		{"", log.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitInvalidLevel(t *testing.T) {
	err := Init(Config{Level: "loud", Path: filepath.Join(t.TempDir(), "x.log")})
	if err == nil {
		t.Fatal("Init() with invalid level should fail")
	}
}

func TestGetBeforeInitDoesNotPanic(t *testing.T) {
	_ = Close()

	logger := Get("uninitialized")
	logger.Info("discarded")
	logger.Debug("also discarded")
}

func TestLogWritesToFile(t *testing.T) {
	path := initTestLogging(t, Config{Level: "info"})

	Get("reconcile").Info("verification complete", "checked", 42)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "verification complete") {
		t.Errorf("log file missing message, got: %q", content)
	}
	if !strings.Contains(content, "reconcile") {
		t.Errorf("log file missing component prefix, got: %q", content)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := initTestLogging(t, Config{Level: "warn"})

	logger := Get("scanner")
	logger.Info("suppressed")
	logger.Warn("emitted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "suppressed") {
		t.Error("info message should not pass a warn-level logger")
	}
	if !strings.Contains(content, "emitted") {
		t.Error("warn message should pass a warn-level logger")
	}
}

func TestComponentLevelOverride(t *testing.T) {
	path := initTestLogging(t, Config{
		Level:      "error",
		Components: map[string]string{"cache": "debug"},
	})

	Get("cache").Debug("cache detail")
	Get("report").Debug("report detail")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "cache detail") {
		t.Error("component override should allow debug for cache")
	}
	if strings.Contains(content, "report detail") {
		t.Error("default error level should suppress debug for report")
	}
}

func TestWithAddsContext(t *testing.T) {
	path := initTestLogging(t, Config{Level: "info"})

	Get("index").With("root", "/data").Info("scan started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "/data") {
		t.Errorf("log file missing With context, got: %q", string(data))
	}
}

func TestReinit(t *testing.T) {
	first := initTestLogging(t, Config{Level: "info"})
	Get("a").Info("first file")

	second := filepath.Join(t.TempDir(), "second.log")
	if err := Init(Config{Level: "info", Path: second}); err != nil {
		t.Fatalf("re-Init() error = %v", err)
	}
	Get("a").Info("second file")

	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("reading second log file: %v", err)
	}
	if !strings.Contains(string(data), "second file") {
		t.Error("existing loggers should follow the new output after re-Init")
	}

	data, err = os.ReadFile(first)
	if err != nil {
		t.Fatalf("reading first log file: %v", err)
	}
	if strings.Contains(string(data), "second file") {
		t.Error("first log file should not receive messages after re-Init")
	}
}

func TestCloseIdempotent(t *testing.T) {
	initTestLogging(t, Config{Level: "info"})

	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
