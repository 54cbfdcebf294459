package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.SweepInterval)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.TrustedProxies, "no proxy is trusted unless configured")
	assert.False(t, cfg.TLSEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
trusted_proxies: ["10.0.0.0/8"]
rate_limit:
  max_attempts: 3
  window: 30s
ice_servers:
  - urls: ["turn:turn.example.org"]
    username: u
    credential: p
`), 0o600))

	t.Setenv("SIGNAL_PORT", "9100")

	v := viper.New()
	v.Set("config_file", path)
	cfg, err := LoadWith(v)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port, "env beats file")
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
	assert.Equal(t, 3, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"turn:turn.example.org"}, cfg.ICEServers[0].URLs)
	assert.Equal(t, "u", cfg.ICEServers[0].Username)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	tests := []struct {
		name string
		set  map[string]any
	}{
		{name: "port out of range", set: map[string]any{"port": 70000}},
		{name: "cert without key", set: map[string]any{"tls_cert": "cert.pem"}},
		{name: "zero attempts", set: map[string]any{"rate_limit.max_attempts": 0}},
		{name: "negative window", set: map[string]any{"rate_limit.window": "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := LoadWith(v)
			assert.Error(t, err)
		})
	}
}
