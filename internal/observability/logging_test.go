package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/mission-service/internal/config"
)

func TestNewZapConfig(t *testing.T) {
	cfg := newZapConfig(config.LoggerConfig{Level: "DEBUG", Format: "console"}, true)
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.True(t, cfg.Development)

	cfg = newZapConfig(config.LoggerConfig{Level: "loud", Format: "json"}, false)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	assert.True(t, cfg.DisableStacktrace)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(
		config.LoggerConfig{Level: "error", Format: "json"},
		config.AppConfig{Name: "mission-service", Version: "test", Env: "test"},
	)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
