package logger

import (
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

// Init installs the global text logger. Level accepts
// debug/info/warn/error; anything else means info.
func Init(level string) {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	Log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}

func Info(msg string, args ...any) {
	if Log == nil {
		Init("")
	}
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	if Log == nil {
		Init("")
	}
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	if Log == nil {
		Init("")
	}
	Log.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	if Log == nil {
		Init("")
	}
	Log.Debug(msg, args...)
}
