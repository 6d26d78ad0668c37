package app

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger builds the application logger. It does not set the global
// logger, allowing for isolated logger instances. Unknown levels fall back to
// info; the configuration is validated before this point.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(levelStr))); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler).With("app", "millgrid")
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }
