package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the lineage configuration
type Config struct {
	Manifest string       `mapstructure:"manifest"`
	Anchor   AnchorConfig `mapstructure:"anchor"`
	Cache    CacheConfig  `mapstructure:"cache"`
	Log      LogConfig    `mapstructure:"log"`
}

// AnchorConfig identifies the script class carrying the native exclusion list
type AnchorConfig struct {
	Name              string `mapstructure:"name"`
	Base              string `mapstructure:"base"`
	ExclusionProperty string `mapstructure:"exclusion_property"`
}

// CacheConfig selects where inheritance verdicts are stored
type CacheConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents redis cache configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// EnvPrefix is prepended to every environment override, e.g. LINEAGE_CACHE_BACKEND
const EnvPrefix = "LINEAGE"

// Load loads the configuration from the nearest lineage.yml or lineage.yaml at
// or above the working directory. A non-empty path names the config file explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("manifest", "project.yml")
	v.SetDefault("anchor.name", "Type")
	v.SetDefault("anchor.base", "RefCounted")
	v.SetDefault("anchor.exclusion_property", "excluded_classes")
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "lineage:")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	configFile := path
	if configFile == "" {
		if found, err := FindConfig(); err == nil {
			configFile = found
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lineage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Relative manifests are relative to the config file
	if used := v.ConfigFileUsed(); used != "" && config.Manifest != "" && !filepath.IsAbs(config.Manifest) {
		config.Manifest = filepath.Join(filepath.Dir(used), config.Manifest)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindConfig walks up from the working directory looking for lineage.yml
func FindConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{"lineage.yml", "lineage.yaml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no lineage.yml found")
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got: %s", BackendMemory, BackendRedis, cfg.Cache.Backend)
	}

	if cfg.Cache.Backend == BackendRedis && strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}

	if strings.TrimSpace(cfg.Anchor.Name) == "" {
		return fmt.Errorf("anchor.name must not be empty")
	}

	if strings.TrimSpace(cfg.Manifest) == "" {
		return fmt.Errorf("manifest must not be empty")
	}

	if cfg.Cache.Redis.DB < 0 {
		return fmt.Errorf("cache.redis.db must not be negative, got: %d", cfg.Cache.Redis.DB)
	}
	return nil
}
