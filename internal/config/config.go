package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

type Config struct {
	Environment string `json:"environment"`
	Server      struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`
	MongoDB struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	} `json:"mongodb"`
	Frontend struct {
		URL string `json:"url"`
	} `json:"frontend"`
	JWT struct {
		AccessSecret string `json:"accessSecret"`
		AccessTTL    int    `json:"accessTtl"` // in minutes
	} `json:"jwt"`
	Engine  EngineConfig `json:"engine"`
	Storage struct {
		Dir string `json:"dir"`
	} `json:"storage"`
	RateLimit struct {
		RecordsPerMinute int `json:"recordsPerMinute"`
	} `json:"rateLimit"`
}

// EngineConfig tunes the computer opponent.
type EngineConfig struct {
	Depth         int `json:"depth"`
	Workers       int `json:"workers"`
	ThinkDelayMs  int `json:"thinkDelayMs"`
	MoveTimeoutMs int `json:"moveTimeoutMs"`
	MaxPlies      int `json:"maxPlies"`
}

func (e EngineConfig) ThinkDelay() time.Duration {
	return time.Duration(e.ThinkDelayMs) * time.Millisecond
}

func (e EngineConfig) MoveTimeout() time.Duration {
	return time.Duration(e.MoveTimeoutMs) * time.Millisecond
}

func Load(env string) (*Config, error) {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		// Default to configs directory relative to working directory
		configDir = "configs"
	}

	filename := fmt.Sprintf("config.%s.json", env)
	configPath := filepath.Join(configDir, filename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Environment = env
	return cfg, nil
}

// Parse decodes a config document, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when a field is left out.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9029
	}
	if c.MongoDB.Database == "" {
		c.MongoDB.Database = "minichess"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 30 * 24 * 60
	}
	if c.Engine.Depth == 0 {
		c.Engine.Depth = 4
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = runtime.NumCPU()
	}
	if c.Engine.ThinkDelayMs == 0 {
		c.Engine.ThinkDelayMs = 500
	}
	if c.Engine.MoveTimeoutMs == 0 {
		c.Engine.MoveTimeoutMs = 5000
	}
	if c.Engine.MaxPlies == 0 {
		c.Engine.MaxPlies = 80
	}
	if c.RateLimit.RecordsPerMinute == 0 {
		c.RateLimit.RecordsPerMinute = 30
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Engine.Depth < 1 {
		errs = append(errs, fmt.Errorf("engine.depth must be positive: %d", c.Engine.Depth))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("engine.workers must be positive: %d", c.Engine.Workers))
	}
	if c.Engine.ThinkDelayMs < 0 || c.Engine.MoveTimeoutMs < 0 {
		errs = append(errs, errors.New("engine timings must not be negative"))
	}
	if c.Engine.MaxPlies < 1 {
		errs = append(errs, fmt.Errorf("engine.maxPlies must be positive: %d", c.Engine.MaxPlies))
	}
	if c.RateLimit.RecordsPerMinute < 1 {
		errs = append(errs, fmt.Errorf("rateLimit.recordsPerMinute must be positive: %d", c.RateLimit.RecordsPerMinute))
	}
	return errors.Join(errs...)
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

func GetEnv() string {
	env := os.Getenv("MINICHESS_ENV")
	if env == "" {
		return "dev"
	}
	return env
}
