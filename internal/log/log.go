// Package log wraps slog with the fields opsdeck attaches to requests and
// coded errors.
package log

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
)

// Logger is a thin slog wrapper.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := slog.New(handler)
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}
	return &Logger{Logger: l}
}

// Discard drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{Logger: l.Logger.WithGroup(name)}
}

// ForRequest tags records with the request line of an API call.
func (l *Logger) ForRequest(method, path string) *Logger {
	return l.With("method", method, "path", path)
}

// WithError adds the error text. Coded errors also contribute their code
// and cause.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var odErr *oderrors.OpsDeckError
	if !errors.As(err, &odErr) {
		return l.With("error", err.Error())
	}

	args := []any{"error", odErr.Message, "error_code", string(odErr.Code)}
	if odErr.Cause != nil {
		args = append(args, "cause", odErr.Cause.Error())
	}
	return l.With(args...)
}

var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger replaces the logger handed to components built without one.
func SetDefaultLogger(l *Logger) {
	defaultLogger.Store(l)
}

// DefaultLogger returns the process-wide logger, falling back to
// DefaultConfig when none was set.
func DefaultLogger() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultLogger.CompareAndSwap(nil, New(DefaultConfig()))
	return defaultLogger.Load()
}
