// Package logging builds the slog loggers used by the API server and
// the workers.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns the service logger. It accepts the textual level names
// used in configuration ("debug", "info", "warn", "error"; anything
// else means info) and writes logfmt to stderr, keeping stdout free
// for command output. Attributes logged under "error" are normalized
// to the shorter "err" key.
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: normalizeKeys,
	}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a configuration level name to a slog level,
// defaulting to info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func normalizeKeys(groups []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}
