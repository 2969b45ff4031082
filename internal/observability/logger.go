package observability

import (
	"io"
	"log/slog"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/weather-broker/internal/config"
)

const serviceName = "weather-broker"

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT, writes
// to stdout and installs it as the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
}

// NewLoggerTo is NewLogger writing to w, without touching the slog default.
// One-shot commands log to stderr so stdout carries only their result.
func NewLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", serviceName)
}
