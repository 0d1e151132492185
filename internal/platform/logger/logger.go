package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output so log shippers can index
// request_id and entity fields without parsing.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
