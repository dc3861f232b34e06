package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Shield the test from ambient environment configuration.
	for _, key := range []string{configPathEnv, databaseDriverEnv, databaseDSNEnv, collectModeEnv, checkIntervalEnv} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("unexpected default driver: %s", cfg.Database.Driver)
	}
	if cfg.Inference.ChunkSize != 20 {
		t.Fatalf("unexpected default chunk size: %d", cfg.Inference.ChunkSize)
	}
	if cfg.Collector.Mode != "fast" {
		t.Fatalf("unexpected default mode: %s", cfg.Collector.Mode)
	}
	if cfg.Worker.PollInterval != 5*time.Second {
		t.Fatalf("unexpected default poll interval: %v", cfg.Worker.PollInterval)
	}
	if cfg.Scheduler.CronExpression != "@every 30m" {
		t.Fatalf("unexpected default cron: %s", cfg.Scheduler.CronExpression)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database:
  driver: postgres
  dsn: postgres://localhost/newsdigest
collector:
  mode: full
  maxParallel: 8
inference:
  model: mistral
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Database.Driver != "postgres" {
		t.Fatalf("file driver not applied: %s", cfg.Database.Driver)
	}
	if cfg.Collector.Mode != "full" || cfg.Collector.MaxParallel != 8 {
		t.Fatalf("collector overrides not applied: %+v", cfg.Collector)
	}
	if cfg.Inference.Model != "mistral" {
		t.Fatalf("model not applied: %s", cfg.Inference.Model)
	}
	// Untouched settings keep their defaults.
	if cfg.Inference.ChunkSize != 20 {
		t.Fatalf("default chunk size lost: %d", cfg.Inference.ChunkSize)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  dsn: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "from-env")
	t.Setenv(collectModeEnv, "full")

	cfg := Load()

	if cfg.Database.DSN != "from-env" {
		t.Fatalf("env DSN must win, got %s", cfg.Database.DSN)
	}
	if cfg.Collector.Mode != "full" {
		t.Fatalf("env mode not applied: %s", cfg.Collector.Mode)
	}
}

func TestCheckIntervalEnvBecomesCron(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(checkIntervalEnv, "15")

	cfg := Load()

	if cfg.Scheduler.CronExpression != "@every 15m0s" {
		t.Fatalf("unexpected cron expression: %s", cfg.Scheduler.CronExpression)
	}
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected defaults on unreadable file, got %s", cfg.Database.Driver)
	}
}
