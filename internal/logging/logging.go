package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"astrocore/pkg/wcs"
)

// New returns a slog.Logger writing to stderr with the provided level string
// (info, debug, warn, error). format may be "json" or "text".
func New(level string, format string) *slog.Logger {
	return NewTo(os.Stderr, level, format)
}

// NewTo is New with an explicit destination.
func NewTo(w io.Writer, level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// LogDiagnostics replays the construction trail of a WCS model.
func LogDiagnostics(logger *slog.Logger, source string, diags []wcs.Diagnostic) {
	for _, d := range diags {
		if d.Level == wcs.LevelWarning {
			logger.Warn(d.Message, "source", source)
		} else {
			logger.Debug(d.Message, "source", source)
		}
	}
}
