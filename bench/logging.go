package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the harness logger for cfg.LogFormat and cfg.LogLevel.
func newLogger(cfg *Config, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", "nnbench").Logger(), nil
}
