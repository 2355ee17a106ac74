package config

import (
	"io"
	"log/slog"
	"os"
)

func NewLogger(env string) *slog.Logger {
	return NewLoggerWithWriter(env, os.Stdout)
}

// NewLoggerWithWriter builds the environment logger writing to w
func NewLoggerWithWriter(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		AddSource: env == "development",
	}

	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(w, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", "selfielens")
}
