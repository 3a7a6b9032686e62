// Package config loads service configuration from defaults, an optional
// YAML file, and CAMINO_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr        = ":8080"
	defaultRedisAddr         = "127.0.0.1:6379"
	defaultKeyPrefix         = "camino:"
	defaultLogLevel          = "info"
	defaultWorkers           = 4
	defaultPollInterval      = 250 * time.Millisecond
	defaultVisibilityTimeout = 30 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

// Config holds the settings shared by the API server and the workers.
type Config struct {
	ListenAddr        string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	KeyPrefix         string
	LogLevel          string
	Workers           int
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// fileConfig is the YAML shape; durations are written as strings ("30s").
type fileConfig struct {
	ListenAddr        string `yaml:"listen_addr"`
	RedisAddr         string `yaml:"redis_addr"`
	RedisPassword     string `yaml:"redis_password"`
	RedisDB           *int   `yaml:"redis_db"`
	KeyPrefix         string `yaml:"key_prefix"`
	LogLevel          string `yaml:"log_level"`
	Workers           *int   `yaml:"workers"`
	PollInterval      string `yaml:"poll_interval"`
	VisibilityTimeout string `yaml:"visibility_timeout"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:        defaultListenAddr,
		RedisAddr:         defaultRedisAddr,
		KeyPrefix:         defaultKeyPrefix,
		LogLevel:          defaultLogLevel,
		Workers:           defaultWorkers,
		PollInterval:      defaultPollInterval,
		VisibilityTimeout: defaultVisibilityTimeout,
		ShutdownTimeout:   defaultShutdownTimeout,
	}
}

// Load builds the configuration. path may be empty to skip the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Workers < 1 {
		return Config{}, errors.New("workers must be at least 1")
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.RedisPassword != "" {
		cfg.RedisPassword = fc.RedisPassword
	}
	if fc.RedisDB != nil {
		cfg.RedisDB = *fc.RedisDB
	}
	if fc.KeyPrefix != "" {
		cfg.KeyPrefix = fc.KeyPrefix
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{fc.PollInterval, &cfg.PollInterval, "poll_interval"},
		{fc.VisibilityTimeout, &cfg.VisibilityTimeout, "visibility_timeout"},
		{fc.ShutdownTimeout, &cfg.ShutdownTimeout, "shutdown_timeout"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CAMINO_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("CAMINO_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CAMINO_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CAMINO_KEY_PREFIX"); v != "" {
		cfg.KeyPrefix = v
	}
	if v := os.Getenv("CAMINO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CAMINO_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CAMINO_REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("CAMINO_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CAMINO_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	for _, d := range []struct {
		env string
		dst *time.Duration
	}{
		{"CAMINO_POLL_INTERVAL", &cfg.PollInterval},
		{"CAMINO_VISIBILITY_TIMEOUT", &cfg.VisibilityTimeout},
		{"CAMINO_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	} {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}
	return nil
}
