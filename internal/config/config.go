package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all toolkit settings. Values loaded from yaml can be
// overridden through LOB_* environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Data struct {
		Path         string `yaml:"path"`
		Depth        int    `yaml:"depth"`
		WarmupEvents int    `yaml:"warmup_events"`
	} `yaml:"data"`

	Strategy struct {
		Gamma   float64 `yaml:"gamma"`
		Sigma   float64 `yaml:"sigma"`
		Kappa   float64 `yaml:"kappa"`
		Horizon float64 `yaml:"horizon"`
		Size    int64   `yaml:"size"`
	} `yaml:"strategy"`

	Server struct {
		Port        string `yaml:"port"`
		MetricsPort string `yaml:"metrics_port"`
	} `yaml:"server"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Name = "lob-engine"
	cfg.Data.Depth = 5
	cfg.Data.WarmupEvents = 50
	cfg.Strategy.Gamma = 0.1
	cfg.Strategy.Sigma = 0.02
	cfg.Strategy.Kappa = 1.5
	cfg.Strategy.Horizon = 1.0
	cfg.Strategy.Size = 1
	cfg.Server.Port = "8080"
	cfg.Server.MetricsPort = "9090"
	return cfg
}

// Load reads and validates a yaml config file. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Data.Depth <= 0 {
		return fmt.Errorf("data depth must be positive, got %d", c.Data.Depth)
	}
	if c.Data.WarmupEvents < 0 {
		return fmt.Errorf("warmup events must be non-negative, got %d", c.Data.WarmupEvents)
	}
	if c.Strategy.Gamma <= 0 {
		return fmt.Errorf("strategy gamma must be positive, got %v", c.Strategy.Gamma)
	}
	if c.Strategy.Kappa <= 0 {
		return fmt.Errorf("strategy kappa must be positive, got %v", c.Strategy.Kappa)
	}
	if c.Strategy.Sigma < 0 {
		return fmt.Errorf("strategy sigma must be non-negative, got %v", c.Strategy.Sigma)
	}
	if c.Strategy.Size <= 0 {
		return fmt.Errorf("strategy size must be positive, got %d", c.Strategy.Size)
	}
	if c.Server.Port == "" || c.Server.MetricsPort == "" {
		return fmt.Errorf("server ports must not be empty")
	}
	return nil
}

// overrideWithEnv applies environment overrides when present.
func overrideWithEnv(cfg *Config) {
	if port := os.Getenv("LOB_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if port := os.Getenv("LOB_METRICS_PORT"); port != "" {
		cfg.Server.MetricsPort = port
	}
	if path := os.Getenv("LOB_DATA_PATH"); path != "" {
		cfg.Data.Path = path
	}
}
