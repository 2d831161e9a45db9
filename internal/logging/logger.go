// Package logging configures the process-wide zerolog logger through an
// explicit constructor instead of a package-level default.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds a zerolog.Logger at the given level. pretty selects a
// human-readable console writer (local development) over the default
// JSON encoder (production); console-pretty mode is what pulls in
// zerolog's mattn/go-colorable + mattn/go-isatty dependency pair.
func Setup(level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out zerolog.ConsoleWriter
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		logger = zerolog.New(out).With().Timestamp().Logger()
	}

	logger = logger.Level(parseLevel(level))
	return logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
