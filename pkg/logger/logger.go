// Package logger builds the zerolog.Logger used across every component.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the base logger construction.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // console-writer output instead of JSON
}

// New builds a zerolog.Logger from Config, defaulting to info level on an
// unrecognized Level string.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var writer = os.Stdout
	var w zerolog.ConsoleWriter
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// SetGlobalLogger sets zerolog's global level to l's level and stores l
// for Global. The zerolog/log package logger is not replaced.
func SetGlobalLogger(l zerolog.Logger) {
	zerolog.SetGlobalLevel(l.GetLevel())
	zlog = l
}

var zlog zerolog.Logger

// Global returns the logger installed via SetGlobalLogger.
func Global() zerolog.Logger {
	return zlog
}
