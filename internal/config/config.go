package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWSDIGEST_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	inferenceURLEnv   = "INFERENCE_BASE_URL"
	inferenceModelEnv = "INFERENCE_MODEL"
	inferenceKeyEnv   = "INFERENCE_API_KEY"
	httpAddrEnv       = "HTTP_ADDR"
	checkIntervalEnv  = "CHECK_INTERVAL_MINUTES"
	collectModeEnv    = "COLLECT_MODE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Inference InferenceConfig `yaml:"inference"`
	Collector CollectorConfig `yaml:"collector"`
	Worker    WorkerConfig    `yaml:"worker"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig selects the SQL backend. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// InferenceConfig describes the OpenAI-compatible inference endpoint
// (a local Ollama server exposes the same surface under /v1).
type InferenceConfig struct {
	BaseURL          string        `yaml:"baseUrl"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"apiKey"`
	ChunkSize        int           `yaml:"chunkSize"`
	SummarizeTimeout time.Duration `yaml:"summarizeTimeout"`
}

// CollectorConfig tunes source collection runs.
type CollectorConfig struct {
	Mode            string        `yaml:"mode"`
	FetchTimeout    time.Duration `yaml:"fetchTimeout"`
	AnnotateTimeout time.Duration `yaml:"annotateTimeout"`
	MaxParallel     int           `yaml:"maxParallel"`
	ReconcileEvery  time.Duration `yaml:"reconcileEvery"`
	ReconcileBatch  int           `yaml:"reconcileBatch"`
}

// WorkerConfig tunes the job queue worker.
type WorkerConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
}

// SchedulerConfig defines the collection cadence.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
}

// HTTPConfig describes the status API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig carries the minimum slog level as a string.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(inferenceURLEnv); v != "" {
		c.Inference.BaseURL = v
	}
	if v := os.Getenv(inferenceModelEnv); v != "" {
		c.Inference.Model = v
	}
	if v := os.Getenv(inferenceKeyEnv); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(collectModeEnv); v != "" {
		c.Collector.Mode = v
	}
	if v := os.Getenv(checkIntervalEnv); v != "" {
		if d, err := time.ParseDuration(v + "m"); err == nil && d > 0 {
			c.Scheduler.CronExpression = "@every " + d.String()
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Inference.BaseURL != "" {
		base.Inference.BaseURL = override.Inference.BaseURL
	}
	if override.Inference.Model != "" {
		base.Inference.Model = override.Inference.Model
	}
	if override.Inference.APIKey != "" {
		base.Inference.APIKey = override.Inference.APIKey
	}
	if override.Inference.ChunkSize > 0 {
		base.Inference.ChunkSize = override.Inference.ChunkSize
	}
	if override.Inference.SummarizeTimeout > 0 {
		base.Inference.SummarizeTimeout = override.Inference.SummarizeTimeout
	}

	if override.Collector.Mode != "" {
		base.Collector.Mode = override.Collector.Mode
	}
	if override.Collector.FetchTimeout > 0 {
		base.Collector.FetchTimeout = override.Collector.FetchTimeout
	}
	if override.Collector.AnnotateTimeout > 0 {
		base.Collector.AnnotateTimeout = override.Collector.AnnotateTimeout
	}
	if override.Collector.MaxParallel > 0 {
		base.Collector.MaxParallel = override.Collector.MaxParallel
	}
	if override.Collector.ReconcileEvery > 0 {
		base.Collector.ReconcileEvery = override.Collector.ReconcileEvery
	}
	if override.Collector.ReconcileBatch > 0 {
		base.Collector.ReconcileBatch = override.Collector.ReconcileBatch
	}

	if override.Worker.PollInterval > 0 {
		base.Worker.PollInterval = override.Worker.PollInterval
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "newsdigest.db"},
		Inference: InferenceConfig{
			BaseURL:          "http://localhost:11434/v1",
			Model:            "llama3.2",
			ChunkSize:        20,
			SummarizeTimeout: 120 * time.Second,
		},
		Collector: CollectorConfig{
			Mode:            "fast",
			FetchTimeout:    30 * time.Second,
			AnnotateTimeout: 60 * time.Second,
			MaxParallel:     4,
			ReconcileEvery:  2 * time.Minute,
			ReconcileBatch:  20,
		},
		Worker:    WorkerConfig{PollInterval: 5 * time.Second},
		Scheduler: SchedulerConfig{CronExpression: "@every 30m"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Logging:   LoggingConfig{Level: "info"},
	}
}
