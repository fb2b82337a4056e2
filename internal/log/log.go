// Package log wraps log/slog with typed fields so components can share one
// structured diagnostic channel. Transport details and stale pipeline
// completions are written here, never to the view document.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	defaultLogger *Logger
	defaultOnce   sync.Once
)

// Logger is a thin wrapper around *slog.Logger. A nil *Logger discards
// everything, so components can hold one without guarding every call.
type Logger struct {
	internal *slog.Logger
}

// New builds a logger writing to w using the given level ("debug", "info",
// "warn", "error") and format ("text" or "json").
func New(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("log: unsupported format %q", format)
	}
	return &Logger{internal: slog.New(handler)}, nil
}

// Default returns a process-wide text logger at info level on stderr.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = &Logger{
			internal: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		}
	})
	return defaultLogger
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{internal: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps a level name onto slog.Level. Empty input means info.
func ParseLevel(level string) (slog.Level, error) {
	trimmed := strings.TrimSpace(level)
	if trimmed == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(trimmed)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid level %q", level)
	}
	return lvl, nil
}

// With returns a logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{internal: l.internal.With(convertFields(fields)...)}
}

// WithComponent tags records with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(String("component", name))
}

func (l *Logger) Debug(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.internal.Debug(msg, convertFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.internal.Info(msg, convertFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.internal.Warn(msg, convertFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.internal.Error(msg, convertFields(fields)...)
}

// Slog exposes the underlying logger for libraries that take *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.internal
}

func convertFields(fields []Field) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
