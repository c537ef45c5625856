package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fhuszti/cleanmedia-go/internal/runctx"
)

var std *slog.Logger

// --- handler that appends the run id and mode as attributes ---

type runAttrHandler struct{ h slog.Handler }

func (r runAttrHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return r.h.Enabled(ctx, lvl)
}

func (r runAttrHandler) Handle(ctx context.Context, rec slog.Record) error {
	if id, ok := runctx.RunIDFromContext(ctx); ok {
		rec.AddAttrs(slog.String("run", id.String()))
	}
	if mode, ok := runctx.ModeFromContext(ctx); ok {
		rec.AddAttrs(slog.String("mode", mode))
	}
	return r.h.Handle(ctx, rec)
}

func (r runAttrHandler) WithAttrs(a []slog.Attr) slog.Handler {
	return runAttrHandler{h: r.h.WithAttrs(a)}
}
func (r runAttrHandler) WithGroup(n string) slog.Handler {
	return runAttrHandler{h: r.h.WithGroup(n)}
}

// --- public API ---

// Init
// ENV:
//
//	LOG_FORMAT    json|text (default: text)
//	LOG_LEVEL     debug|info|warn|error (default: info)
//	LOG_SOURCE    true|false (default: false)
//
// A non-empty level argument (set by the -d/-q flags) wins over LOG_LEVEL.
func Init(level string) {
	InitWithWriter(os.Stderr, level)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level string) {
	if level == "" {
		level = getEnv("LOG_LEVEL", "info")
	}
	addSource := parseBool(getEnv("LOG_SOURCE", "false"))
	format := strings.ToLower(getEnv("LOG_FORMAT", "text"))

	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: addSource}

	var base slog.Handler
	if format == "json" {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(runAttrHandler{h: base}).With("svc", "cleanmedia")

	std = logger
	slog.SetDefault(std)

	// Keep legacy log.Printf visible (no ctx → no run id).
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(base, slog.LevelInfo).Writer())
}

// --- small helpers ---

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func activeLogger() *slog.Logger {
	if std != nil {
		return std
	}
	return slog.Default()
}

// --- convenience wrappers ---

func Info(ctx context.Context, msg string, attrs ...any) {
	activeLogger().InfoContext(ctx, msg, attrs...)
}
func Warn(ctx context.Context, msg string, attrs ...any) {
	activeLogger().WarnContext(ctx, msg, attrs...)
}
func Error(ctx context.Context, msg string, attrs ...any) {
	activeLogger().ErrorContext(ctx, msg, attrs...)
}
func Debug(ctx context.Context, msg string, attrs ...any) {
	activeLogger().DebugContext(ctx, msg, attrs...)
}

func Infof(ctx context.Context, format string, a ...any) {
	activeLogger().InfoContext(ctx, fmt.Sprintf(format, a...))
}
func Errorf(ctx context.Context, format string, a ...any) {
	activeLogger().ErrorContext(ctx, fmt.Sprintf(format, a...))
}
func Warnf(ctx context.Context, format string, a ...any) {
	activeLogger().WarnContext(ctx, fmt.Sprintf(format, a...))
}
func Debugf(ctx context.Context, format string, a ...any) {
	activeLogger().DebugContext(ctx, fmt.Sprintf(format, a...))
}
