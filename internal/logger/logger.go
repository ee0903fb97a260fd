// Package logger wires a process-wide slog logger. DEBUG=true switches the
// level to debug.
package logger

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

func Init() {
	SetDebug(os.Getenv("DEBUG") == "true")
}

// SetDebug rebuilds the logger at the requested level. Called again after
// configuration is loaded so the config Debug flag wins over the bootstrap
// environment check.
func SetDebug(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(Logger)
}

func logger() *slog.Logger {
	if Logger == nil {
		return slog.Default()
	}
	return Logger
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
