package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/assetfetch/internal/allowlist"
	"github.com/GriffinCanCode/assetfetch/internal/fetch"
	"github.com/GriffinCanCode/assetfetch/internal/logging"
	"github.com/GriffinCanCode/assetfetch/internal/uri"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all configuration.
type Config struct {
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	AllowList  AllowListConfig  `yaml:"allowlist" toml:"allowlist"`
	Classifier ClassifierConfig `yaml:"classifier" toml:"classifier"`
	Fetch      FetchConfig      `yaml:"fetch" toml:"fetch"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
	File        string `envconfig:"LOG_FILE" yaml:"file" toml:"file"`
}

// AllowListConfig holds the external domains that may be fetched.
type AllowListConfig struct {
	Domains []string `envconfig:"ALLOWED_DOMAINS" yaml:"domains" toml:"domains"`
	// Legacy keeps entries as written, without leading-dot normalization
	Legacy bool `envconfig:"ALLOWLIST_LEGACY_MATCH" default:"false" yaml:"legacy_match" toml:"legacy_match"`

	// Warnings collected while normalizing Domains
	Warnings []string `ignored:"true" yaml:"-" toml:"-"`

	list *allowlist.List
}

// ClassifierConfig holds reference classification settings.
type ClassifierConfig struct {
	ExecutableSuffix string `envconfig:"EXECUTABLE_SUFFIX" default:".aspx" yaml:"executable_suffix" toml:"executable_suffix"`
	HandlerPath      string `envconfig:"HANDLER_PATH" default:"/webresource.axd" yaml:"handler_path" toml:"handler_path"`
}

// FetchConfig holds outbound fetch settings.
type FetchConfig struct {
	TimeoutSeconds int     `envconfig:"FETCH_TIMEOUT_SECONDS" default:"100" yaml:"timeout_seconds" toml:"timeout_seconds"`
	UserAgent      string  `envconfig:"FETCH_USER_AGENT" default:"assetfetch/1.0" yaml:"user_agent" toml:"user_agent"`
	RateLimit      float64 `envconfig:"FETCH_RATE_LIMIT" default:"0" yaml:"rate_limit" toml:"rate_limit"`
	BreakerEnabled bool    `envconfig:"FETCH_BREAKER_ENABLED" default:"false" yaml:"breaker_enabled" toml:"breaker_enabled"`
	Charset        string  `envconfig:"FETCH_CHARSET" default:"utf-8" yaml:"charset" toml:"charset"`
	Username       string  `envconfig:"FETCH_USERNAME" yaml:"username" toml:"username"`
	Password       string  `envconfig:"FETCH_PASSWORD" yaml:"password" toml:"password"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads a YAML (.yaml, .yml) or TOML (.toml) file over the
// defaults. Environment variables are not consulted.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q (must be: .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Classifier: ClassifierConfig{
			ExecutableSuffix: ".aspx",
			HandlerPath:      "/webresource.axd",
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 100,
			UserAgent:      "assetfetch/1.0",
			Charset:        "utf-8",
		},
	}
}

// finalize validates values and normalizes the allow-list
func (c *Config) finalize() error {
	if c.Fetch.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid config: fetch timeout must not be negative, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("invalid config: fetch rate limit must not be negative, got %g", c.Fetch.RateLimit)
	}
	if _, err := fetch.ParseCharset(c.Fetch.Charset); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.AllowList.list, c.AllowList.Warnings = allowlist.New(c.AllowList.Domains, c.AllowList.Legacy)
	c.AllowList.Domains = c.AllowList.list.Entries()
	return nil
}

// AllowedDomains returns the normalized allow-list
func (c *Config) AllowedDomains() *allowlist.List {
	if c.AllowList.list == nil {
		c.AllowList.list, _ = allowlist.New(c.AllowList.Domains, c.AllowList.Legacy)
	}
	return c.AllowList.list
}

// LoggerConfig returns the logging settings
func (c *Config) LoggerConfig() logging.Config {
	if c.Logging.File != "" {
		cfg := logging.FileConfig(c.Logging.Level, c.Logging.File)
		cfg.Development = c.Logging.Development
		return cfg
	}
	if c.Logging.Development {
		cfg := logging.DevelopmentConfig()
		cfg.Level = c.Logging.Level
		return cfg
	}
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	return cfg
}

// ClassifierOptions returns the classification settings
func (c *Config) ClassifierOptions() uri.Options {
	return uri.Options{
		ExecutableSuffix: c.Classifier.ExecutableSuffix,
		HandlerPath:      c.Classifier.HandlerPath,
	}
}

// FetchOptions returns the fetch settings
func (c *Config) FetchOptions() fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Timeout = time.Duration(c.Fetch.TimeoutSeconds) * time.Second
	if c.Fetch.UserAgent != "" {
		opts.UserAgent = c.Fetch.UserAgent
	}
	opts.RateLimit = c.Fetch.RateLimit
	opts.Breaker = c.Fetch.BreakerEnabled
	opts.Username = c.Fetch.Username
	opts.Password = c.Fetch.Password
	if cs, err := fetch.ParseCharset(c.Fetch.Charset); err == nil {
		opts.Charset = cs
	}
	return opts
}
