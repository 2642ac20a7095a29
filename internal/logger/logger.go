// Package logger provides a thin wrapper around zerolog.Logger with the
// constructors used throughout olsync.
//
// The Logger type embeds zerolog.Logger so the full zerolog API (Debug,
// Info, Warn, Error, Fatal, ...) is available directly on *Logger.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a thin wrapper around zerolog.Logger. Embedding exposes the
// upstream API while leaving room for application helpers.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger writing human-readable console output to stderr.
// Stdout is reserved for command results (project metadata, listings), so
// everything diagnostic goes to stderr.
func New(role string) *Logger {
	return NewWithWriter(role, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// NewWithWriter constructs a *Logger for the given role label writing to w.
// Every entry carries a "role" field and a timestamp.
func NewWithWriter(role string, w io.Writer) *Logger {
	logger := zerolog.New(w).With().
		Str("role", role).
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	return &Logger{logger}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a new *Logger inheriting all fields of the
// receiver; the child can be enriched without touching the parent.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// WithContext stores the logger in ctx for retrieval via FromContext.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext extracts the zerolog.Logger stored in ctx. If none is
// attached zerolog falls back to its global logger, so the result is never
// nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
