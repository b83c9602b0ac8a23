package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestGetAppliesDefaults(t *testing.T) {
	defaultLogger = nil
	log := Get()
	require.NotNil(t, log)
	ctx := context.Background()
	assert.True(t, log.Enabled(ctx, slog.LevelInfo))
	assert.False(t, log.Enabled(ctx, slog.LevelDebug))
}

func TestInitializeLevel(t *testing.T) {
	Initialize("debug", "json")
	assert.True(t, Get().Enabled(context.Background(), slog.LevelDebug))

	Initialize("error", "text")
	assert.False(t, Get().Enabled(context.Background(), slog.LevelWarn))
}
