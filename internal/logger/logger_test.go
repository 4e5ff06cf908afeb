package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := parseLogLevel(tt.input); result != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error for missing file: %v", err)
	}

	if config.Level != "INFO" {
		t.Errorf("Default level = %q, want %q", config.Level, "INFO")
	}
	if !config.consoleEnabled() {
		t.Error("console logging should be enabled by default")
	}
	if config.FileEnabled {
		t.Error("file logging should be disabled by default")
	}
	if config.FilePath != "logs/randomizer.log" {
		t.Errorf("Default FilePath = %q, want %q", config.FilePath, "logs/randomizer.log")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	yamlContent := `logging:
  level: DEBUG
  console_enabled: false
  console_format: json
  file_enabled: true
  file_path: run.log
  file_max_size_mb: 20
  file_compress: true
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "DEBUG" {
		t.Errorf("Level = %q, want %q", config.Level, "DEBUG")
	}
	if config.consoleEnabled() {
		t.Error("console_enabled: false was ignored")
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want %q", config.ConsoleFormat, "json")
	}
	if !config.FileEnabled || !config.FileCompress {
		t.Error("file settings were not loaded")
	}
	if config.FilePath != "run.log" {
		t.Errorf("FilePath = %q, want %q", config.FilePath, "run.log")
	}
	if config.FileMaxSizeMB != 20 {
		t.Errorf("FileMaxSizeMB = %d, want 20", config.FileMaxSizeMB)
	}
	if config.FileMaxBackups != 3 {
		t.Errorf("FileMaxBackups = %d, want default 3", config.FileMaxBackups)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	if err := os.WriteFile(path, []byte("logging: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/custom/path.log")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "ERROR" {
		t.Errorf("Level = %q, want %q (from env var)", config.Level, "ERROR")
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want %q (from env var)", config.ConsoleFormat, "json")
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true (from env var)")
	}
	if config.FilePath != "/custom/path.log" {
		t.Errorf("FilePath = %q, want %q (from env var)", config.FilePath, "/custom/path.log")
	}
}

func TestInitializeRejectsUnknownFormat(t *testing.T) {
	config := DefaultConfig()
	config.ConsoleFormat = "xml"
	if err := Initialize(config); err == nil {
		t.Error("expected error for unknown console format")
	}
}

func TestInitializeWritesFile(t *testing.T) {
	disabled := false
	config := DefaultConfig()
	config.ConsoleEnabled = &disabled
	config.FileEnabled = true
	config.FilePath = filepath.Join(t.TempDir(), "logs", "randomizer.log")
	config.FileFormat = "json"

	if err := Initialize(config); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() { logger = nil }()

	Info("group resized", "mappa_index", 4)

	raw, err := os.ReadFile(config.FilePath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(raw), `"mappa_index":4`) {
		t.Errorf("log file missing structured field: %s", raw)
	}
}

func TestClose(t *testing.T) {
	disabled := false
	config := DefaultConfig()
	config.ConsoleEnabled = &disabled
	config.FileEnabled = true
	config.FilePath = filepath.Join(t.TempDir(), "randomizer.log")

	if err := Initialize(config); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() { logger = nil }()

	Warning("run aborted", "dungeon", 12)
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	raw, err := os.ReadFile(config.FilePath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(raw), "run aborted") {
		t.Errorf("log file missing message: %s", raw)
	}
}

func TestSetOutputLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "WARNING")
	defer func() { logger = nil }()

	Debug("Debug message")
	Info("Info message")
	Warning("Warning message", "dungeon", 3)
	Error("Error message")

	output := buf.String()
	if strings.Contains(output, "Debug message") || strings.Contains(output, "Info message") {
		t.Errorf("messages below WARNING were written: %s", output)
	}
	if !strings.Contains(output, "Warning message") || !strings.Contains(output, "dungeon=3") {
		t.Errorf("warning missing from output: %s", output)
	}
	if !strings.Contains(output, "Error message") {
		t.Errorf("error missing from output: %s", output)
	}
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "DEBUG")
	defer func() { logger = nil }()

	Debugf("Debug: %d + %d = %d", 1, 2, 3)
	Infof("Info: %s", "test")
	Warningf("Warning: %.2f%%", 99.95)
	Errorf("Error: %v", "failed")

	output := buf.String()
	for _, want := range []string{"Debug: 1 + 2 = 3", "Info: test", "Warning: 99.95%", "Error: failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer

	infoHandler := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	errHandler := slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger = slog.New(newMultiHandler(infoHandler, errHandler))
	defer func() { logger = nil }()

	Info("Multi-handler test", "field", "value")
	Error("Multi-handler error")

	if !strings.Contains(infoBuf.String(), "field=value") {
		t.Error("info handler missing structured field")
	}
	if !strings.Contains(infoBuf.String(), "Multi-handler error") {
		t.Error("info handler missing error message")
	}
	if strings.Contains(errBuf.String(), "Multi-handler test") {
		t.Error("error handler received an info message")
	}
	if !strings.Contains(errBuf.String(), "Multi-handler error") {
		t.Error("error handler missing error message")
	}
}

func TestNilLogger(t *testing.T) {
	logger = nil

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logging with nil logger caused panic: %v", r)
		}
	}()

	Debug("debug")
	Info("info")
	Warning("warning")
	Error("error")
}
