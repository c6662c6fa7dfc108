// Package util has some logging helpers.
package util

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logging is a clumsy switch that affects what Logf does.
//
// If Logging is true, then Logf logs at info level.
var Logging = false

// Logf is a silly utility function that logs if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	slog.Default().Info(fmt.Sprintf(format, args...))
}

// ParseLevel turns "debug", "info", "warn", or "error" into a
// slog.Level.  Anything else is info.
func ParseLevel(s string) slog.Level {
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

// Init sets the default slog logger.
//
// The format is "json" or "text".
func Init(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// Logger returns the default logger with a "component" attribute.
func Logger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
