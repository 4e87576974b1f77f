package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8095, cfg.Server.Port)
	assert.Equal(t, DefaultSyncCron, cfg.Collections.Cron)
	assert.Equal(t, "", cfg.Collections.Networks)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, 500, cfg.Collections.MaxPages)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
collections:
  networks: "49,2739"
  run_on_start: true
jellyfin:
  url: http://jellyfin:8096
  api_key: file-key
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("NETCOLLECTIONS_JELLYFIN_API_KEY", "env-key")
	t.Setenv("NETCOLLECTIONS_TMDB_API_KEY", "tmdb-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "49,2739", cfg.Collections.Networks)
	assert.True(t, cfg.Collections.RunOnStart)
	assert.Equal(t, "http://jellyfin:8096", cfg.Jellyfin.URL)
	assert.Equal(t, "env-key", cfg.Jellyfin.APIKey, "env must override file")
	assert.Equal(t, "tmdb-key", cfg.TMDB.APIKey)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Collections.Cron = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Notifications.Method = "put"
	assert.NoError(t, cfg.Validate())
	cfg.Notifications.Method = "GET"
	assert.Error(t, cfg.Validate())
}

func TestServerConfig_Address(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9000}
	assert.Equal(t, "127.0.0.1:9000", s.Address())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := Default()
	cfg.Jellyfin.APIKey = "jf-secret"
	cfg.Server.APIKey = ""
	cfg.Notifications.Password = "pw"
	cfg.Notifications.Headers = map[string]string{"Authorization": "Bearer x"}

	out := cfg.Redacted()

	assert.Equal(t, "********", out.Jellyfin.APIKey)
	assert.Equal(t, "", out.Server.APIKey, "empty secrets stay empty")
	assert.Equal(t, "********", out.Notifications.Password)
	assert.Equal(t, "********", out.Notifications.Headers["Authorization"])

	assert.Equal(t, "jf-secret", cfg.Jellyfin.APIKey, "original must not change")
	assert.Equal(t, "Bearer x", cfg.Notifications.Headers["Authorization"])
}
