// Package config loads the service configuration from YAML. Tenant API
// keys are never stored in the file itself; each tenant names the
// environment variable its key is read from.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	API      APIConfig      `yaml:"api"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Tenants  []TenantConfig `yaml:"tenants"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// APIConfig contains dashboard API server settings
type APIConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// UpstreamConfig contains Klaviyo API settings
type UpstreamConfig struct {
	BaseURL  string        `yaml:"base_url"`  // Default: production Klaviyo endpoint
	Revision string        `yaml:"revision"`  // API version header; default pinned in the client
	Timeout  time.Duration `yaml:"timeout"`   // Per-call HTTP client timeout
	MaxPages int           `yaml:"max_pages"` // Campaign listing pages to follow; 1 = first page only
}

// FetchConfig tunes the aggregation pipeline
type FetchConfig struct {
	// IncludeEngagement adds one upstream call per campaign to fetch
	// engagement counters. Off by default; the campaign listing itself
	// carries no counters.
	IncludeEngagement bool `yaml:"include_engagement"`

	// MaxConcurrent bounds the per-tenant fan-out (0 = unbounded).
	MaxConcurrent int `yaml:"max_concurrent"`
}

// TenantConfig describes one client account
type TenantConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable holding the Klaviyo private key
	Color     string `yaml:"color"`       // Optional hex color for the dashboard
}

// Credential resolves the tenant's API key from the process
// environment. An empty result marks the tenant inactive.
func (t TenantConfig) Credential() string {
	if t.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(t.APIKeyEnv)
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ListenAddr    string        `yaml:"listen_addr"`    // Default: :9090
	Path          string        `yaml:"path"`           // Default: /metrics
	FlushInterval time.Duration `yaml:"flush_interval"` // System gauge refresh; default 10s
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		// Fan-out latency is bounded by the slowest tenant; leave room
		// for the upstream timeout before cutting the response off.
		c.API.WriteTimeout = 60 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}

	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 30 * time.Second
	}
	if c.Upstream.MaxPages == 0 {
		c.Upstream.MaxPages = 1
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.FlushInterval == 0 {
		c.Metrics.FlushInterval = 10 * time.Second
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Tenants) == 0 {
		return fmt.Errorf("at least one tenant must be configured")
	}

	seen := make(map[string]bool, len(c.Tenants))
	for i, t := range c.Tenants {
		if t.ID == "" {
			return fmt.Errorf("tenants[%d]: id is required", i)
		}
		if t.Name == "" {
			return fmt.Errorf("tenant %s: name is required", t.ID)
		}
		if t.APIKeyEnv == "" {
			return fmt.Errorf("tenant %s: api_key_env is required", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tenant id: %s", t.ID)
		}
		seen[t.ID] = true
	}

	if c.Upstream.MaxPages < 1 {
		return fmt.Errorf("upstream.max_pages must be at least 1")
	}
	if c.Fetch.MaxConcurrent < 0 {
		return fmt.Errorf("fetch.max_concurrent must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
