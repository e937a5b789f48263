package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.API, cfg.API)
	assert.Equal(t, "dashboard", cfg.UI.DefaultView)
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: https://library.example.com
api:
  timeout: 5s
  max_retries: 0
logging:
  level: debug
data:
  dir: ""
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://library.example.com", cfg.Server.URL)
	assert.Equal(t, "/library-management-system/api", cfg.Server.BasePath)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Empty(t, cfg.Data.Dir)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://from-file\n"), 0644))

	t.Setenv("SHELF_SERVER_URL", "http://from-env:9000")
	t.Setenv("SHELF_API_RETRY_DELAY", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.Server.URL)
	assert.Equal(t, 2*time.Second, cfg.API.RetryDelay)
}

func TestDotEnvIsApplied(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHELF_UI_DEFAULT_VIEW=list\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SHELF_UI_DEFAULT_VIEW") })

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "list", cfg.UI.DefaultView)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.URL = "http://books.local"
	cfg.API.RetryDelay = 750 * time.Millisecond
	cfg.Data.Dir = "/tmp/shelf-data"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.API, loaded.API)
	assert.Equal(t, "/tmp/shelf-data", loaded.Data.Dir)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "shelf.log"), expandHome("~/logs/shelf.log"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
