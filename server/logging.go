package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/haasonsaas/contactd/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// configureLogger sets up logging from the environment before the config
// file has been read.
func configureLogger() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	level := zerolog.InfoLevel
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("CONTACTD_LOG_LEVEL"))); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	format := strings.ToLower(strings.TrimSpace(os.Getenv("CONTACTD_LOG_FORMAT")))
	log.Logger = newLogger(os.Stdout, format).Level(level)
	zerolog.SetGlobalLevel(level)
}

func applyLogging(cfg config.LoggingConfig) zerolog.Level {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}

	format := "console"
	if cfg.JSON {
		format = "json"
	}

	log.Logger = newLogger(os.Stdout, format).Level(level)
	zerolog.SetGlobalLevel(level)
	return level
}

func newLogger(w io.Writer, format string) zerolog.Logger {
	if format == "json" {
		return zerolog.New(w).With().Timestamp().Str("service", "contactd").Logger()
	}
	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}
