// Package config assembles runtime configuration: defaults, overlaid by an
// optional config.yaml in the state directory, overlaid by environment
// variables. Environment always wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Cache
	CacheTTL time.Duration
	RedisURL string // non-empty switches the response cache to Redis

	// Storage
	StateDir      string
	StorageDriver string // sqlite or json

	// Resilience
	CircuitBreaker bool
	RetryReads     bool

	// Logging
	LogLevel string
	Debug    bool
}

// Load reads configuration from the yaml file (if present) and the
// environment.
func Load() (*Config, error) {
	stateDir := getEnv("STOREFRONT_STATE_DIR", "")
	if stateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, err
		}
		stateDir = dir
	}

	cfg := defaults(stateDir)

	if err := applyFile(cfg, filepath.Join(stateDir, "config.yaml")); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultStateDir returns ~/.storefront.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".storefront"), nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func (c *Config) EnsureStateDir() error {
	if err := os.MkdirAll(c.StateDir, 0755); err != nil {
		return fmt.Errorf("create state dir %s: %w", c.StateDir, err)
	}
	return nil
}

func defaults(stateDir string) *Config {
	return &Config{
		APIBaseURL:     "http://localhost:8000",
		RequestTimeout: 10 * time.Second,
		CacheTTL:       5 * time.Minute,
		StateDir:       stateDir,
		StorageDriver:  "sqlite",
		CircuitBreaker: true,
		RetryReads:     true,
		LogLevel:       "info",
	}
}

func applyEnv(cfg *Config) {
	cfg.APIBaseURL = getEnv("STOREFRONT_API_URL", cfg.APIBaseURL)
	cfg.RequestTimeout = getEnvDuration("STOREFRONT_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CacheTTL = getEnvDuration("STOREFRONT_CACHE_TTL", cfg.CacheTTL)
	cfg.RedisURL = getEnv("STOREFRONT_REDIS_URL", cfg.RedisURL)
	cfg.StorageDriver = getEnv("STOREFRONT_STORAGE_DRIVER", cfg.StorageDriver)
	cfg.CircuitBreaker = getEnvBool("STOREFRONT_CIRCUIT_BREAKER", cfg.CircuitBreaker)
	cfg.RetryReads = getEnvBool("STOREFRONT_RETRY_READS", cfg.RetryReads)
	cfg.LogLevel = getEnv("STOREFRONT_LOG_LEVEL", cfg.LogLevel)
	cfg.Debug = getEnvBool("STOREFRONT_DEBUG", cfg.Debug)
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url must not be empty")
	}
	if c.StorageDriver != "sqlite" && c.StorageDriver != "json" {
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
