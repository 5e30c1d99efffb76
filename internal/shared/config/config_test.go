package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Collaboration.StorageDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.Collaboration.InvitationExpiry)
	assert.Equal(t, "@every 5m", cfg.Collaboration.InvitationSweep)
	assert.Equal(t, uint32(5), cfg.Services.FailureThreshold)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
collaboration:
  storage_driver: memory
  invitation_expiry: 48h
services:
  eligibility_url: http://eligibility.local
rate_limit:
  enabled: true
  limit: 10
  window: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Collaboration.StorageDriver)
	assert.Equal(t, 48*time.Hour, cfg.Collaboration.InvitationExpiry)
	assert.Equal(t, "http://eligibility.local", cfg.Services.EligibilityURL)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoad_SecretFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	t.Setenv("EVENTSYNC_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_InvalidDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collaboration:\n  storage_driver: sqlite\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", c.DSN())
}
