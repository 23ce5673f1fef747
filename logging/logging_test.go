package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_HasComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json"}, &buf)

	New("artifact").Info("hello")

	output := buf.String()
	if !strings.Contains(output, `"logger":"artifact"`) {
		t.Errorf("expected component name in output, got: %s", output)
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("expected 'hello' in output, got: %s", output)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn"}, &buf)

	logger := New("level-test")
	logger.Info("hidden")
	logger.Warn("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "WARN") {
		t.Errorf("expected WARN in console output, got: %s", output)
	}
}

func TestInit_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "medpredict.log")
	logger := Init(Config{Level: "info", File: path, MaxSizeMB: 1}, &buf)

	logger.Info("to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected message in log file, got: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != zapcore.DebugLevel {
		t.Error("expected debug level")
	}
	if ParseLevel("nonsense") != zapcore.InfoLevel {
		t.Error("expected info fallback")
	}
	if ParseLevel("") != zapcore.InfoLevel {
		t.Error("expected info for empty level")
	}
}
