package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors config.yaml. Zero values mean "not set" and leave the
// current value alone, so the file only needs the keys it overrides.
// Durations are strings in Go duration syntax ("10s", "5m").
type fileConfig struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Cache struct {
		TTL      string `yaml:"ttl"`
		RedisURL string `yaml:"redis_url"`
	} `yaml:"cache"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Resilience struct {
		CircuitBreaker *bool `yaml:"circuit_breaker"`
		RetryReads     *bool `yaml:"retry_reads"`
	} `yaml:"resilience"`
	LogLevel string `yaml:"log_level"`
}

// applyFile overlays cfg with values from the yaml file at path. A missing
// file is fine.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if file.API.BaseURL != "" {
		cfg.APIBaseURL = file.API.BaseURL
	}
	if file.API.Timeout != "" {
		d, err := time.ParseDuration(file.API.Timeout)
		if err != nil {
			return fmt.Errorf("parse api.timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if file.Cache.TTL != "" {
		d, err := time.ParseDuration(file.Cache.TTL)
		if err != nil {
			return fmt.Errorf("parse cache.ttl: %w", err)
		}
		cfg.CacheTTL = d
	}
	if file.Cache.RedisURL != "" {
		cfg.RedisURL = file.Cache.RedisURL
	}
	if file.Storage.Driver != "" {
		cfg.StorageDriver = file.Storage.Driver
	}
	if file.Resilience.CircuitBreaker != nil {
		cfg.CircuitBreaker = *file.Resilience.CircuitBreaker
	}
	if file.Resilience.RetryReads != nil {
		cfg.RetryReads = *file.Resilience.RetryReads
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	return nil
}
