// Package config loads client settings from .env files, an optional YAML
// file and OPENAI_* environment variables, in that order of precedence
// (later sources win).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/deeplooplabs/ai-client/ratelimit"
	"github.com/deeplooplabs/ai-client/service"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
// A double underscore separates nesting levels: OPENAI_RETRY__MAX_RETRIES.
const DefaultEnvPrefix = "OPENAI_"

// ErrMissingAPIKey is returned when no API key was configured
var ErrMissingAPIKey = errors.New("api_key is required")

// Config holds the client settings
type Config struct {
	APIKey       string          `koanf:"api_key"`
	BaseURL      string          `koanf:"base_url"`
	Organization string          `koanf:"organization"`
	Project      string          `koanf:"project"`
	Model        string          `koanf:"model"`
	Timeout      time.Duration   `koanf:"timeout"`
	ReadTimeout  time.Duration   `koanf:"read_timeout"`
	Tracing      bool            `koanf:"tracing"`
	Retry        RetryConfig     `koanf:"retry"`
	RateLimit    RateLimitConfig `koanf:"rate_limit"`
	Log          LogConfig       `koanf:"log"`
}

// RetryConfig holds the retry settings
type RetryConfig struct {
	Enabled        bool          `koanf:"enabled"`
	MaxRetries     int           `koanf:"max_retries"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`
}

// RateLimitConfig holds the client-side throttling settings
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
	PerOperation      bool    `koanf:"per_operation"`
}

// LogConfig holds the logger settings
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

// Options controls where Load reads from
type Options struct {
	// DotEnvFiles are loaded into the process environment first. When empty,
	// ".env" is tried and a missing file is ignored.
	DotEnvFiles []string

	// File is an optional YAML file. A missing file is an error only when set.
	File string

	// EnvPrefix overrides DefaultEnvPrefix
	EnvPrefix string

	// SkipValidation allows loading without an API key
	SkipValidation bool
}

var defaults = map[string]any{
	"base_url":              service.DefaultBaseURL,
	"model":                 "gpt-4o-mini",
	"timeout":               60 * time.Second,
	"read_timeout":          30 * time.Second,
	"tracing":               true,
	"retry.enabled":         true,
	"retry.max_retries":     3,
	"retry.initial_backoff": 100 * time.Millisecond,
	"retry.max_backoff":     10 * time.Second,
	"rate_limit.enabled":    false,
	"rate_limit.burst":      10,
	"log.level":             "info",
	"log.format":            "json",
}

// Load reads the configuration
func Load(opts Options) (*Config, error) {
	if len(opts.DotEnvFiles) > 0 {
		if err := godotenv.Load(opts.DotEnvFiles...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	k := koanf.New(".")

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", opts.File, err)
		}
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if !opts.SkipValidation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Validate checks the settings required to make calls
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive, got %v", c.RateLimit.RequestsPerSecond)
	}
	return nil
}

// RateLimitHook builds the throttling hook, or nil when rate limiting is off
func (c *Config) RateLimitHook() *ratelimit.Hook {
	if !c.RateLimit.Enabled {
		return nil
	}
	h := ratelimit.NewHook(&ratelimit.Config{
		RequestsPerSecond: c.RateLimit.RequestsPerSecond,
		Burst:             c.RateLimit.Burst,
		Enabled:           true,
	})
	if c.RateLimit.PerOperation {
		h.Key = ratelimit.PerOperation
	}
	return h
}

// ServiceConfig converts the settings into a service configuration
func (c *Config) ServiceConfig() *service.Config {
	retry := service.NoRetry()
	if c.Retry.Enabled {
		retry = service.DefaultRetryConfig()
		retry.MaxRetries = c.Retry.MaxRetries
		if c.Retry.InitialBackoff > 0 {
			retry.InitialBackoff = c.Retry.InitialBackoff
		}
		if c.Retry.MaxBackoff > 0 {
			retry.MaxBackoff = c.Retry.MaxBackoff
		}
	}

	cfg := service.NewConfig(c.APIKey).
		WithBaseURL(c.BaseURL).
		WithOrganization(c.Organization).
		WithProject(c.Project).
		WithTracing(c.Tracing).
		WithRetryConfig(retry)
	if c.Timeout > 0 {
		cfg.WithTimeout(c.Timeout)
	}
	if c.ReadTimeout > 0 {
		cfg.WithReadTimeout(c.ReadTimeout)
	}
	return cfg
}
