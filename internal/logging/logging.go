// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for stored run ids.
	RunIDKey ContextKey = "run_id"
)

var defaultLogger *slog.Logger

func init() {
	Init(os.Stderr, LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// ParseLevel maps debug, info, warn and error to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// ParseFormat maps text and json to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", s)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init replaces the global logger. Logs go to w so that stdout stays free
// for command output.
func Init(w io.Writer, level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	return defaultLogger
}

// WithRunID attaches a run id to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// RunID retrieves the run id from ctx.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns a logger with context values attached.
func FromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	return logger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// SolveCompleted logs a finished solve with its common fields.
func SolveCompleted(method string, samples int, duration time.Duration, args ...any) {
	allArgs := []any{
		"method", method,
		"samples", samples,
		"duration_ms", float64(duration.Microseconds()) / 1000,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("solve_completed", allArgs...)
}

// SolveFailed logs a failed solve.
func SolveFailed(method string, err error, args ...any) {
	allArgs := []any{
		"method", method,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Error("solve_failed", allArgs...)
}

// CaseSkipped logs a test-case row that could not be loaded.
func CaseSkipped(row int, reason string, args ...any) {
	allArgs := []any{
		"row", row,
		"reason", reason,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("case_skipped", allArgs...)
}
