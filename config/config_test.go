package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "leaves.db", cfg.Database.Path)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, 120, cfg.HTTP.RateLimit)
	assert.Len(t, cfg.HTTP.AllowedOrigins, 2)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	t.Setenv("RL_PORT", "9090")
	t.Setenv("RL_DB_PATH", ":memory:")
	t.Setenv("RL_ALLOWED_ORIGINS", " https://hr.example.com , ")

	cfg, err := Load([]string{"-port", "3000"}, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.App.Port, "flag wins over env")
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, []string{"https://hr.example.com"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RL_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RL_LOG_LEVEL") })

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("RL_PORT", "eighty")
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
