package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

var (
	instance *slog.Logger
	once     sync.Once
	level    = new(slog.LevelVar)

	hostname string
	hostOnce sync.Once
)

// Instance returns the process-wide JSON logger. It logs at info until
// SetLevel is called with the configured level.
func Instance() *slog.Logger {
	once.Do(func() {
		instance = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
	})

	return instance
}

// SetLevel applies debug, info, warn or error to the process-wide logger.
// Anything else falls back to info.
func SetLevel(s string) slog.Level {
	lvl := parseLevel(s)
	level.Set(lvl)
	return lvl
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Hostname is resolved once and attached to every traced record.
func Hostname() string {
	hostOnce.Do(func() {
		h, err := os.Hostname()
		if err != nil {
			h = "unknown"
		}
		hostname = h
	})
	return hostname
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelDebug, msg, attrs)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelError, msg, attrs)
}

func write(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	log := Instance()
	if !log.Enabled(ctx, level) {
		return
	}
	attrs = enrich(ctx, attrs)
	log.LogAttrs(ctx, level, msg, attrs...)
	if level >= slog.LevelInfo {
		push(level, msg, attrs)
	}
}

func enrich(ctx context.Context, attrs []slog.Attr) []slog.Attr {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return attrs
	}
	return append(attrs,
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
		slog.String("hostname", Hostname()),
	)
}

// Err is shorthand for the error attribute used across the codebase.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
