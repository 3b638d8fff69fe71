// Package logger defines the structured logging interface used throughout
// client-gen.
//
// Attributes are alternating key-value pairs, following log/slog:
//
//	log.Debug("resolved reference", "ref", "#/components/schemas/Pet", "spec", key)
//
// Use [NewSlogAdapter] to plug in a *slog.Logger. Components default to
// [NopLogger] when none is configured.
package logger

import (
	"context"
	"io"
	"log/slog"

	"github.com/mattn/go-isatty"
)

// Logger is the logging interface accepted by the loader, the generator
// service and the CLI.
type Logger interface {
	Debug(msg string, attrs ...any)
	Info(msg string, attrs ...any)
	Warn(msg string, attrs ...any)
	Error(msg string, attrs ...any)

	// With returns a Logger that prepends attrs to every entry.
	With(attrs ...any) Logger
}

// NopLogger discards all output.
type NopLogger struct{}

func (NopLogger) Debug(_ string, _ ...any) {}
func (NopLogger) Info(_ string, _ ...any)  {}
func (NopLogger) Warn(_ string, _ ...any)  {}
func (NopLogger) Error(_ string, _ ...any) {}

// With implements Logger.
func (n NopLogger) With(_ ...any) Logger { return n }

var _ Logger = NopLogger{}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// SlogAdapter wraps a *slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter. A nil logger means slog.Default().
func NewSlogAdapter(l *slog.Logger) *SlogAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &SlogAdapter{logger: l}
}

func (s *SlogAdapter) Debug(msg string, attrs ...any) {
	s.logger.Log(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (s *SlogAdapter) Info(msg string, attrs ...any) {
	s.logger.Log(context.Background(), slog.LevelInfo, msg, attrs...)
}

func (s *SlogAdapter) Warn(msg string, attrs ...any) {
	s.logger.Log(context.Background(), slog.LevelWarn, msg, attrs...)
}

func (s *SlogAdapter) Error(msg string, attrs ...any) {
	s.logger.Log(context.Background(), slog.LevelError, msg, attrs...)
}

// With implements Logger.
func (s *SlogAdapter) With(attrs ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(attrs...)}
}

var _ Logger = (*SlogAdapter)(nil)

// New builds a slog-backed Logger writing to w: human-readable text when w is
// a terminal, JSON otherwise.
func New(w io.Writer, verbose bool) Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
