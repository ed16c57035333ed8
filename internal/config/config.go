// Package config loads configuration from an optional YAML file layered
// under environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server and explorer configuration.
type Config struct {
	// Server
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Metadata store ("local" or "postgres")
	StoreBackend string `yaml:"store_backend"`
	DataDir      string `yaml:"data_dir"`
	DatabaseURL  string `yaml:"database_url"`

	// Uploads
	MaxUploadSize int64 `yaml:"max_upload_size"`

	// Explorer client
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RetryAttempts  int           `yaml:"retry_attempts"`
}

// Load reads the optional YAML file named by QS_CONFIG, then overlays
// environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     ":8000",
		MetricsAddr:    ":9090",
		LogLevel:       "info",
		LogFormat:      "json",
		StoreBackend:   "local",
		DataDir:        "data",
		MaxUploadSize:  100 * 1024 * 1024,
		ServerURL:      "http://localhost:8000",
		RequestTimeout: 30 * time.Second,
		RetryAttempts:  3,
	}

	if path := os.Getenv("QS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.ListenAddr = envOr("LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = envOr("METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.StoreBackend = envOr("STORE_BACKEND", cfg.StoreBackend)
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.MaxUploadSize = envInt64("MAX_UPLOAD_SIZE", cfg.MaxUploadSize)
	cfg.ServerURL = envOr("SERVER_URL", cfg.ServerURL)
	cfg.RequestTimeout = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryAttempts = envInt("RETRY_ATTEMPTS", cfg.RetryAttempts)

	switch cfg.StoreBackend {
	case "local":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("DATA_DIR is required for the local store")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
