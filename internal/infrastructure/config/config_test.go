package config_test

import (
	"testing"
	"time"

	"github.com/iho/fxoffice/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RATE_FEED_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.RateFeedURL != "" {
		t.Fatalf("expected rate feed URL default to be empty, got %q", cfg.RateFeedURL)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.RequestTTL != 24*time.Hour {
		t.Fatalf("expected default request TTL 24h, got %s", cfg.RequestTTL)
	}

	if cfg.SpreadPercent != "2.0" {
		t.Fatalf("expected default spread 2.0, got %s", cfg.SpreadPercent)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("RATE_SWEEP_INTERVAL", "30s")
	t.Setenv("DISTRIBUTED_LOCK", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected custom HTTP port, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected custom database timeout, got %s", cfg.DatabaseTimeout)
	}

	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("expected custom sweep interval, got %s", cfg.SweepInterval)
	}

	if !cfg.DistributedLock {
		t.Fatalf("expected distributed lock enabled")
	}
}
