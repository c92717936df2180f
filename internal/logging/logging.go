// Package logging builds the zerolog logger used by every component.
// Loggers are passed explicitly; nothing here touches zerolog's global logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration options
type Config struct {
	// Level is the minimum log level to output
	Level string

	// Format is one of auto, console, json
	Format string

	// NoColor disables color output in console mode
	NoColor bool
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) zerolog.Logger {
	level := ParseLevel(cfg.Level)

	var out io.Writer = w
	switch resolveFormat(cfg.Format, w) {
	case "console":
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// ParseLevel parses a log level string, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "diagnostics":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "", "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "disable", "off", "none", "quiet":
		return zerolog.Disabled
	default:
		if l, err := zerolog.ParseLevel(raw); err == nil {
			return l
		}
		return zerolog.InfoLevel
	}
}

func resolveFormat(format string, w io.Writer) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "pretty", "text":
		return "console"
	case "json":
		return "json"
	}
	// auto: console on a terminal, JSON otherwise
	if f, ok := w.(*os.File); ok {
		if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return "console"
		}
	}
	return "json"
}
