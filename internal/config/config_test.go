package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bafcc/camp-admin/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "http://localhost:8000", cfg.GetAPIURL())
	require.Equal(t, "http://localhost:8000/api/v1/users/login", cfg.GetLoginURL())
	require.Equal(t, "http://localhost:8000/api/v1/users/refresh", cfg.GetRefreshURL())
	require.Equal(t, "http://localhost:8000/api/v1/users/me", cfg.GetMeURL())
	require.Equal(t, "http://localhost:8000/api/v1/users/logout", cfg.GetLogoutURL())
	require.Equal(t, time.Second, cfg.GetInitRetryDelay())
	require.Equal(t, 5*time.Minute, cfg.GetExpiryMargin())
	require.Equal(t, 10*time.Second, cfg.GetGuardTimeout())
	require.True(t, cfg.IsDev())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("API_URL", "https://bafcc.example.org/")
	t.Setenv("PORT", ":9090")
	t.Setenv("GUARD_TIMEOUT", "3s")
	t.Setenv("ENV", "PROD")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.GetPort())
	require.Equal(t, "https://bafcc.example.org", cfg.GetAPIURL())
	require.Equal(t, "https://bafcc.example.org/api/v1/users/me", cfg.GetMeURL())
	require.Equal(t, 3*time.Second, cfg.GetGuardTimeout())
	require.False(t, cfg.IsDev())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	content := []byte("backend:\n  api_url: http://backend.local:8000\nsession:\n  init_retry_delay: 250ms\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http://backend.local:8000", cfg.GetAPIURL())
	require.Equal(t, 250*time.Millisecond, cfg.GetInitRetryDelay())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	t.Run("bad scheme", func(t *testing.T) {
		t.Setenv("API_URL", "ftp://backend")
		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported scheme")
	})

	t.Run("relative path", func(t *testing.T) {
		t.Setenv("API_ME_PATH", "me")
		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "API_ME_PATH")
	})

	t.Run("zero guard timeout", func(t *testing.T) {
		t.Setenv("GUARD_TIMEOUT", "0s")
		_, err := config.Load()
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := config.Load()
		require.Error(t, err)
	})
}
