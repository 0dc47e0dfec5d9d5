// Package config provides centralized configuration management for
// dayflow. Defaults, an optional YAML file, and DAYFLOW_* environment
// variables are merged through viper and decoded into typed structs.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment overrides, e.g.
// DAYFLOW_SERVER_PORT maps to server.port.
const EnvPrefix = "DAYFLOW"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// api_key needs an explicit default so AutomaticEnv can see the key.
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "gpt-4o")
	v.SetDefault("provider.timeout", "60s")
	v.SetDefault("provider.base_url", "")

	v.SetDefault("admission.session_max_per_hour", 100)
	v.SetDefault("admission.ip_max_per_hour", 50)
	v.SetDefault("admission.min_interval", "10s")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

// Load merges defaults, an optional config file, and environment
// variables, then decodes the result. configFile may be empty.
//
// This function is safe to call multiple times (e.g., for config reload).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		cfg.Provider.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Backend)) {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid store backend %q (expected memory or redis)", c.Store.Backend)
	}

	if c.Admission.SessionMaxPerHour < 0 || c.Admission.IPMaxPerHour < 0 {
		return fmt.Errorf("rate limits must be non-negative")
	}
	if c.Admission.MinInterval < 0 {
		return fmt.Errorf("min interval must be non-negative")
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 60 * time.Second
	}

	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
