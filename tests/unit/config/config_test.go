package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatlink/pkg/config"

	"github.com/stretchr/testify/assert"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_UsesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load("non-existent-config.yaml")
	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":8081", cfg.Signal.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Duration(0), cfg.Calls.RingTimeout)
	assert.False(t, cfg.Presence.Redis.Enabled)
}

func TestLoad_LoadsFromYAMLAndAppliesEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
server:
  address: ":9000"
  read_timeout: 10s
  write_timeout: 15s
  shutdown_timeout: 20s

signal:
  address: ":9001"
  ping_interval: 5s
  pong_timeout: 10s
  write_timeout: 5s
  shutdown_timeout: 20s

calls:
  ring_timeout: 45s

presence:
  redis:
    enabled: true
    address: "redis:6379"
    pool_size: 20
  events_enabled: true

monitoring:
  prometheus_enabled: true
  prometheus_port: 9100

logging:
  level: "debug"
  format: "json"
`)

	// Set env overrides
	t.Setenv("CHATLINK_SERVER_ADDRESS", ":7000")
	t.Setenv("CHATLINK_SIGNAL_ADDRESS", ":7001")
	t.Setenv("CHATLINK_LOG_LEVEL", "warn")
	t.Setenv("CHATLINK_REDIS_ADDRESS", "other-redis:6379")

	cfg, err := config.Load(path)
	assert.NoError(t, err)

	// YAML values
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.Signal.PingInterval)
	assert.Equal(t, 45*time.Second, cfg.Calls.RingTimeout)
	assert.True(t, cfg.Presence.Redis.Enabled)
	assert.True(t, cfg.Presence.EventsEnabled)
	assert.Equal(t, 20, cfg.Presence.Redis.PoolSize)
	assert.True(t, cfg.Monitoring.PrometheusEnabled)
	assert.Equal(t, 9100, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Env overrides
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, ":7001", cfg.Signal.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "other-redis:6379", cfg.Presence.Redis.Address)
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	path := writeTempConfig(t, `
server:
  address: ""
  read_timeout: 0s
  write_timeout: 0s

signal:
  address: ""
  ping_interval: 0s
  pong_timeout: 0s

logging:
  level: ""
  format: "json"
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, cfg.Validate())
}
