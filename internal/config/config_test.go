package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 8080
api:
  base_url: http://api.test/api
  timeout: 3s
session:
  secret: s3cret
  idle_ttl: 5m
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://api.test/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, "patientor_session", cfg.Session.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
api:
  base_url: http://api.test/api
session:
  secret: from-file
`)
	t.Setenv("PATIENTOR_API_BASE_URL", "http://override/api")
	t.Setenv("PATIENTOR_SESSION_SECRET", "from-env")
	t.Setenv("PATIENTOR_RATE_LIMIT_BURST", "7")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://override/api", cfg.API.BaseURL)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("PATIENTOR_SESSION_SECRET", "x")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3001/api", cfg.API.BaseURL)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "session.secret")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := writeConfig(t, "server: [unclosed")
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
