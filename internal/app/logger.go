package app

import (
	"io"
	"log/slog"
)

// newLogger builds the slog.Logger an App runs with. Each App gets its
// own instance rather than mutating the process default, so embedders
// and tests can run several apps at different verbosities side by side.
// Unrecognized level strings fall back to info; the CLI rejects them
// before they reach this point.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}
