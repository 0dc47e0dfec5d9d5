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
	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		cfg, err := Load("")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "gpt-4o", cfg.Provider.Model)
		assert.Equal(t, "", cfg.Provider.APIKey)
		assert.Equal(t, 60*time.Second, cfg.Provider.Timeout)

		assert.Equal(t, 100, cfg.Admission.SessionMaxPerHour)
		assert.Equal(t, 50, cfg.Admission.IPMaxPerHour)
		assert.Equal(t, 10*time.Second, cfg.Admission.MinInterval)

		assert.Equal(t, "memory", cfg.Store.Backend)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.True(t, cfg.Health.Enabled)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("DAYFLOW_SERVER_PORT", "9999")
		t.Setenv("DAYFLOW_PROVIDER_MODEL", "gpt-4o-mini")
		t.Setenv("DAYFLOW_ADMISSION_MIN_INTERVAL", "3s")
		t.Setenv("DAYFLOW_STORE_BACKEND", "redis")
		t.Setenv("DAYFLOW_STORE_REDIS_ADDR", "redis.internal:6380")
		t.Setenv("DAYFLOW_LOGGING_LEVEL", "debug")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
		assert.Equal(t, 3*time.Second, cfg.Admission.MinInterval)
		assert.Equal(t, "redis", cfg.Store.Backend)
		assert.Equal(t, "redis.internal:6380", cfg.Store.RedisAddr)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("APIKeyFallback", func(t *testing.T) {
		t.Setenv("DAYFLOW_PROVIDER_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "sk-test-fallback")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-test-fallback", cfg.Provider.APIKey)
	})

	t.Run("PrefixedAPIKeyWins", func(t *testing.T) {
		t.Setenv("DAYFLOW_PROVIDER_API_KEY", "sk-test-prefixed")
		t.Setenv("OPENAI_API_KEY", "sk-test-fallback")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-test-prefixed", cfg.Provider.APIKey)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		contents := []byte("server:\n  port: 3000\nadmission:\n  session_max_per_hour: 25\n")
		require.NoError(t, os.WriteFile(path, contents, 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, 25, cfg.Admission.SessionMaxPerHour)
		assert.Equal(t, 50, cfg.Admission.IPMaxPerHour)
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		t.Setenv("DAYFLOW_STORE_BACKEND", "etcd")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store backend")
	})

	t.Run("MissingConfigFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestGetConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Same(t, cfg, GetConfig())
}
