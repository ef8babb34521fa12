// Package logging configures the process-wide slog logger for the plume
// hosts. The interpreter core itself never logs; everything here is host
// plumbing.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LevelTrace sits below slog.LevelDebug for the very chatty spots, like
// per-dispatch tracing in the hosts.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a level name to its slog value.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %s", level)
}

// Setup builds a text-handler logger at the named level and installs it
// as the slog default. Output goes to stderr; when file is non-empty the
// log is also appended there.
func Setup(level, file string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stderr
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

// Trace logs through the default logger at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}
