package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: ":9090"
segmentation:
  mode: polygons
  url: http://segment.local/score
compose:
  threshold: 50
  jpeg_quality: 75
`), 0o644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "polygons", cfg.Segmentation.Mode)
	assert.Equal(t, "http://segment.local/score", cfg.Segmentation.URL)
	assert.Equal(t, 50, cfg.Compose.Threshold)
	assert.Equal(t, 75, cfg.Compose.JPEGQuality)

	// 未配置的项使用默认值
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Empty(t, cfg.Server.LogLevel)
	assert.Equal(t, 80, cfg.Compose.WEBPQuality)
	assert.Equal(t, "#FFFFFF", cfg.Compose.DefaultBackground)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "@every 1h", cfg.Upload.CleanupSchedule)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/jpg", "image/webp"}, cfg.Upload.AllowedTypes)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segmentation:\n  mode: polygons\n"), 0o644))

	t.Setenv("IDPHOTO_SEGMENTATION_API_KEY", "secret")
	t.Setenv("IDPHOTO_SERVER_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Segmentation.APIKey)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := New()
	assert.Equal(t, getDefaultConfig(), cfg)
}
