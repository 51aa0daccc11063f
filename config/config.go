package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stockcast/forecast"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration, loaded from YAML with environment overrides.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Database struct {
		URL        string `yaml:"url"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Advisory struct {
		GeminiAPIKey string        `yaml:"gemini_api_key"`
		Model        string        `yaml:"model"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"advisory"`
	Forecast struct {
		forecast.Config `yaml:",inline"`
		LookbackDays    int `yaml:"lookback_days"`
		Concurrency     int `yaml:"concurrency"`
	} `yaml:"forecast"`
	Schedule struct {
		ForecastCron string `yaml:"forecast_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	// JWTSecret mirrors Auth.JWTSecret for the auth middleware.
	JWTSecret string `yaml:"-"`
}

// AppConfig holds the application-wide configuration.
var AppConfig Config

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Forecast.Config = forecast.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Advisory.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Advisory.Model = v
	}
	if v := os.Getenv("ADVISORY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ADVISORY_TIMEOUT: %w", err)
		}
		cfg.Advisory.Timeout = d
	}
	if v := os.Getenv("FORECAST_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FORECAST_LOOKBACK_DAYS: %w", err)
		}
		cfg.Forecast.LookbackDays = n
	}
	if v := os.Getenv("CRON_FORECAST"); v != "" {
		cfg.Schedule.ForecastCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = v == "true" || v == "1"
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Advisory.Timeout == 0 {
		cfg.Advisory.Timeout = forecast.DefaultAdvisoryTimeout
	}
	if cfg.Forecast.LookbackDays == 0 {
		cfg.Forecast.LookbackDays = 90
	}
	if cfg.Forecast.Concurrency == 0 {
		cfg.Forecast.Concurrency = forecast.DefaultConcurrency
	}
	if cfg.Schedule.ForecastCron == "" {
		cfg.Schedule.ForecastCron = "0 0 2 * * *"
	}

	cfg.JWTSecret = cfg.Auth.JWTSecret
	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url (DATABASE_URL) is required")
	}
	if c.Forecast.LookbackDays < 1 {
		return fmt.Errorf("forecast.lookback_days must be positive")
	}
	if c.Advisory.Timeout < 0 {
		return fmt.Errorf("advisory.timeout must not be negative")
	}
	if err := c.Forecast.Config.Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	return nil
}
