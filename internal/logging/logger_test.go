package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/binavg/internal/config"
)

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	level, err = parseLevel("loud")
	require.Error(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

func TestNewLoggerRequiresAnOutput(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "info", Format: "json"})
	require.ErrorIs(t, err, ErrNoOutputs)
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := NewLogger(config.LogConfig{
		Level:              "info",
		Format:             "json",
		FileLoggingEnabled: true,
		Directory:          dir,
		Filename:           "binavg.log",
		MaxSize:            1,
	})
	require.NoError(t, err)

	logger.Info("Bin closed")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "binavg.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Bin closed"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}
