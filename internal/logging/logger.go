package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
// Development runs log at debug level.
func Setup(appEnv string) slog.Handler {
	h := NewJSONHandler(os.Stdout, appEnv)
	slog.SetDefault(slog.New(h))
	return h
}

func NewJSONHandler(w io.Writer, appEnv string) slog.Handler {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
