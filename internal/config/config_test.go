package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log-relay/internal/level"
	"log-relay/internal/relay"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Nil(t, cfg.Relay.Remote())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
relay:
  level: warn
  base_url: https://logsene-receiver.sematext.com
  index: abcd
  timeout: 5s
api:
  addr: ":9000"
engine:
  workers: 4
  default_rate: 100
generator:
  weights:
    info: 3
    error: 1
  services: [billing, auth]
  service_profiles:
    billing:
      messages:
        error: ["card declined"]
      static_fields:
        region: eu
  seed: 12
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, level.WARN, cfg.Relay.Level)
	assert.Equal(t, 5*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, ":9000", cfg.API.Addr)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 100, cfg.Engine.DefaultRate)
	assert.Equal(t, map[level.Severity]int{level.INFO: 3, level.ERROR: 1}, cfg.Generator.Weights)
	assert.Equal(t, []string{"billing", "auth"}, cfg.Generator.Services)
	assert.Equal(t, []string{"card declined"}, cfg.Generator.ServiceConfig["billing"].Messages[level.ERROR])
	assert.Equal(t, int64(12), cfg.Generator.Seed)

	assert.Equal(t, &relay.RemoteConfig{
		BaseURL: "https://logsene-receiver.sematext.com",
		Index:   "abcd",
	}, cfg.Relay.Remote())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "relay:\n  level: info\n")
	t.Setenv("LOG_RELAY_LEVEL", "debug")
	t.Setenv("LOG_RELAY_BASE_URL", "http://localhost:8080")
	t.Setenv("LOG_RELAY_INDEX", "local")
	t.Setenv("LOG_RELAY_TIMEOUT", "250ms")
	t.Setenv("LOG_RELAY_API_ADDR", ":7000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, level.DEBUG, cfg.Relay.Level)
	assert.Equal(t, "http://localhost:8080", cfg.Relay.BaseURL)
	assert.Equal(t, "local", cfg.Relay.Index)
	assert.Equal(t, 250*time.Millisecond, cfg.Relay.Timeout)
	assert.Equal(t, ":7000", cfg.API.Addr)
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "missing index", body: "relay:\n  base_url: http://x\n"},
		{name: "unknown level", body: "relay:\n  level: loud\n"},
		{name: "no workers", body: "engine:\n  workers: 0\n"},
		{name: "negative timeout", body: "relay:\n  timeout: -1s\n"},
		{name: "bad yaml", body: "relay: [\n"},
		{name: "bad env level", body: "", env: map[string]string{"LOG_RELAY_LEVEL": "loud"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
