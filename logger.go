package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Logger wraps slog.Logger so the rest of the program can take a single type.
type Logger struct {
	*slog.Logger
}

// NewLogger builds a text or JSON logger writing to w at the given level.
func NewLogger(w io.Writer, level, format string) (*Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.Errorf("invalid log format %q", format)
	}
	return &Logger{Logger: slog.New(handler)}, nil
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}
