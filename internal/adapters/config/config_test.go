package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mlserve", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 100.0, cfg.Server.RateLimitRPS)

	assert.Equal(t, "artifacts/model/model.onnx", cfg.Model.Path)
	assert.Equal(t, "artifacts/model/metadata.json", cfg.Model.MetadataPath)

	assert.False(t, cfg.ErrorTracking.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MODEL_PATH", "/models/classifier.onnx")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ":9090", cfg.Server.Addr())
	assert.Equal(t, "/models/classifier.onnx", cfg.Model.Path)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}
