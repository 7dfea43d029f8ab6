package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TAXCHAIN_PORT", "TAXCHAIN_JWT_SECRET", "TAXCHAIN_GENESIS_CONFIG", "TAXCHAIN_READ_TIMEOUT",
		"TAXCHAIN_WRITE_TIMEOUT", "TAXCHAIN_DEMO_TIMELINE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.DemoTimeline)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TAXCHAIN_PORT", "9090")
	t.Setenv("TAXCHAIN_JWT_SECRET", "s3cret")
	t.Setenv("TAXCHAIN_READ_TIMEOUT", "2s")
	t.Setenv("TAXCHAIN_DEMO_TIMELINE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.True(t, cfg.DemoTimeline)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadReportsEveryBadValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("TAXCHAIN_PORT", "eighty")
	t.Setenv("TAXCHAIN_WRITE_TIMEOUT", "forever")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAXCHAIN_PORT")
	assert.Contains(t, err.Error(), "TAXCHAIN_WRITE_TIMEOUT")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("TAXCHAIN_PORT")
	os.Unsetenv("TAXCHAIN_GENESIS_CONFIG")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TAXCHAIN_PORT=7070\nTAXCHAIN_GENESIS_CONFIG=genesis.json\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "genesis.json", cfg.GenesisConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
