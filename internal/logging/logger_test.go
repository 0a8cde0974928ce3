package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	t.Setenv(LogFileEnvVar, "")

	if err := Initialize("", ""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a nop when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.log")
	t.Setenv(LogLevelEnvVar, "warn")
	t.Setenv(LogFileEnvVar, path)

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	defer SetLogger(nil)

	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}

	Warn("poll failed", zap.String("poller", "logs"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "poll failed") {
		t.Errorf("log file = %q, want message", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Error("file output should not contain color escapes")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDomainHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogSelection("device", "[IP] 10.0.0.5 (nas)")
	LogAction("deauth", "", "AA:BB:CC:DD:EE:FF")
	LogPoll("logs", false, nil)
	LogPoll("logs", false, errors.New("refused"))
	LogScanState("Starting", "Scanning", 15)
	LogRequest("GET", "/api/logs/live", 200, 3*time.Millisecond, nil)

	wantMsgs := []string{
		"Selection changed",
		"Action dispatched",
		"Poll unchanged",
		"Poll failed",
		"Scan state",
		"Backend request",
	}
	entries := logs.All()
	if len(entries) != len(wantMsgs) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantMsgs))
	}
	for i, want := range wantMsgs {
		if entries[i].Message != want {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Message, want)
		}
	}
	if entries[3].Level != zapcore.WarnLevel {
		t.Errorf("failed poll level = %v, want warn", entries[3].Level)
	}
}
