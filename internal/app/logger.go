package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger tuned by env:
// prod gets JSON at INFO, everything else text at DEBUG
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case "prod":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
