package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/kegg-explore-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: level})
			require.NoError(t, err, "level %q", level)
			assert.NotNil(t, logger)
		}
	})

	t.Run("falls back to info for unknown level", func(t *testing.T) {
		logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: "shout"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestContextCarrier(t *testing.T) {
	t.Parallel()

	scoped := slog.New(slog.NewTextHandler(io.Discard, nil)).With("job_id", "j1")

	t.Run("round-trips a logger through context", func(t *testing.T) {
		ctx := WithLogger(context.Background(), scoped)
		assert.Same(t, scoped, FromContext(ctx))
	})

	t.Run("FromContext falls back to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("FromContextOrDefault prefers provided fallback", func(t *testing.T) {
		assert.Same(t, scoped, FromContextOrDefault(context.Background(), scoped))
	})
}
