package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	require.Equal(t, 2500, cfg.Cache.FreshTTLMillis)
	require.True(t, cfg.Finnhub.Enabled)
	require.True(t, cfg.CoinGecko.Enabled)
	require.Empty(t, cfg.Finnhub.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "env-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_FRESH_TTL_MS", "1000")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.Finnhub.APIKey)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 1000, cfg.Cache.FreshTTLMillis)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7070"
twelvedata:
  enabled: false
  api_key: file-key
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Server.Port)
	require.False(t, cfg.TwelveData.Enabled)
	require.Equal(t, "file-key", cfg.TwelveData.APIKey)
	// untouched sections keep defaults
	require.Equal(t, 2500, cfg.Cache.FreshTTLMillis)
}

func TestLoad_MissingExplicitFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
