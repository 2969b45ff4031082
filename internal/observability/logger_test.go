package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-broker/internal/config"
)

func TestNewLogger_UsesConfiguredLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "json"})

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo), "installed as slog default")
}

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, &config.Config{LogLevel: "info", LogFormat: "json"})

	logger.Info("fetch succeeded", "instance", "wb-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fetch succeeded", line["msg"])
	assert.Equal(t, "wb-1", line["instance"])
	assert.Equal(t, "weather-broker", line["service"])
}

func TestNewLoggerTo_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, &config.Config{LogLevel: "info", LogFormat: "TEXT"})

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewLoggerTo_Level(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLoggerTo(&bytes.Buffer{}, &config.Config{LogLevel: tt.level})
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.want))
			assert.False(t, logger.Enabled(ctx, tt.want-1))
		})
	}
}
