package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.name)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.name, tc.want, got)
		}
	}

	_, err := ParseLevel("verbose")
	if err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	if got := err.Error(); got != "invalid log level: verbose" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestTraceBelowDebug(t *testing.T) {
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%v) should sit below debug (%v)", LevelTrace, slog.LevelDebug)
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	if _, err := Setup("loud", ""); err == nil {
		t.Fatal("expected an error for an invalid level")
	}
}

func TestSetupWritesFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "plume.log")
	logger, err := Setup("debug", path)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info("file sink check", "n", 1)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file sink check") {
		t.Errorf("log line missing from file: %q", data)
	}
	if !strings.Contains(string(data), "n=1") {
		t.Errorf("attribute missing from file: %q", data)
	}
}

func TestSetupAppends(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "plume.log")
	if err := os.WriteFile(path, []byte("existing line\n"), 0o644); err != nil {
		t.Fatalf("seed log file: %v", err)
	}
	logger, err := Setup("info", path)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info("appended line")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.HasPrefix(string(data), "existing line\n") {
		t.Error("Setup should append, not truncate")
	}
	if !strings.Contains(string(data), "appended line") {
		t.Errorf("new line missing from file: %q", data)
	}
}

func TestTraceFiltering(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "plume.log")
	if _, err := Setup("info", path); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	Trace("hidden detail")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "hidden detail") {
		t.Error("trace output should be filtered at info level")
	}

	if _, err := Setup("trace", path); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	Trace("visible detail", "k", "v")

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "visible detail") {
		t.Errorf("trace output missing at trace level: %q", data)
	}
}
