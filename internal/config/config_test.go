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
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")
	t.Setenv("RECONCILE_GRACE", "30m")
	t.Setenv("DB_CONNECT_TIMEOUT_SEC", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "https://api.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Reconcile.Grace)
	assert.Equal(t, 7, cfg.Database.ConnectTimeoutSec)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9090"
database:
  driver: postgres
  name: listings
storage:
  driver: minio
minio:
  bucket: property-images
reconcile:
  schedule: "@every 1h"
  grace: 2h
http:
  shutdown_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "listings", cfg.Database.Name)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "minio", cfg.Storage.Driver)
	assert.Equal(t, "property-images", cfg.MinIO.Bucket)
	assert.Equal(t, "@every 1h", cfg.Reconcile.Schedule)
	assert.Equal(t, 2*time.Hour, cfg.Reconcile.Grace)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestListenAddr(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr())

	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())

	cfg.AppHost = "::1"
	assert.Equal(t, "[::1]:9000", cfg.ListenAddr())
}

func TestLocation(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Asia/Jakarta"
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	t.Setenv(key, "value")

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	t.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	t.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	t.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	t.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	t.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	t.Setenv(key, "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration(key, time.Minute))

	t.Setenv(key, "soon")
	assert.Equal(t, time.Minute, getEnvDuration(key, time.Minute))
}
