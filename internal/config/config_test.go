package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_STATE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if !cfg.CircuitBreaker || !cfg.RetryReads {
		t.Errorf("resilience defaults = (%v, %v), want on", cfg.CircuitBreaker, cfg.RetryReads)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_STATE_DIR", t.TempDir())
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api")
	t.Setenv("STOREFRONT_CACHE_TTL", "90s")
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "json")
	t.Setenv("STOREFRONT_CIRCUIT_BREAKER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://shop.example.com/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.StorageDriver != "json" {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if cfg.CircuitBreaker {
		t.Error("CircuitBreaker = true, want false")
	}
}

func TestLoad_FileOverlayAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api:
  base_url: https://from-file.example.com
  timeout: 20s
cache:
  ttl: 2m
storage:
  driver: json
resilience:
  retry_reads: false
log_level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	t.Setenv("STOREFRONT_STATE_DIR", dir)
	// Environment wins over the file.
	t.Setenv("STOREFRONT_API_URL", "https://from-env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://from-env.example.com" {
		t.Errorf("APIBaseURL = %q, want env value", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("RequestTimeout = %v, want file value 20s", cfg.RequestTimeout)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.CacheTTL)
	}
	if cfg.RetryReads {
		t.Error("RetryReads = true, want file value false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STOREFRONT_STATE_DIR", t.TempDir())
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want unknown driver error")
	}
}

func TestLoad_IgnoresMalformedEnvValues(t *testing.T) {
	t.Setenv("STOREFRONT_STATE_DIR", t.TempDir())
	t.Setenv("STOREFRONT_CACHE_TTL", "soon")
	t.Setenv("STOREFRONT_RETRY_READS", "yep")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want default", cfg.CacheTTL)
	}
	if !cfg.RetryReads {
		t.Error("RetryReads = false, want default true")
	}
}
