package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	instance *slog.Logger
	once     sync.Once
)

// Init configures the global logger. level is one of debug|info|warn|error,
// format is text|json. Safe to call more than once; only the first call wins.
func Init(level string, format string) {
	once.Do(func() {
		instance = build(level, format)
	})
}

func build(level string, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func get() *slog.Logger {
	if instance == nil {
		Init("info", "text")
	}
	return instance
}

// normalize lets call sites pass a bare error (or any odd value) as the first
// argument without breaking slog's key-value pairing.
func normalize(args []any) []any {
	if len(args)%2 == 0 {
		return args
	}
	if err, ok := args[0].(error); ok {
		out := make([]any, 0, len(args)+1)
		out = append(out, "error", err)
		out = append(out, args[1:]...)
		return out
	}
	return append(args, "(missing)")
}

func Debug(msg string, args ...any) {
	get().Debug(msg, normalize(args)...)
}

func Info(msg string, args ...any) {
	get().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	get().Error(msg, normalize(args)...)
}
