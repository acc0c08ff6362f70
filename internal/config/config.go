// Package config loads and validates the bridge configuration file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gqlbridge/internal/embed"
	"gqlbridge/internal/explore"
)

type Config struct {
	// Endpoint is the origin GraphQL API the bridge fronts.
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers"`

	// Strategy picks how sessions see the schema: discovery, fullschema
	// or agentic. Empty means discovery.
	Strategy string `yaml:"strategy"`

	// Bind is the HTTP listen address for the network transports.
	Bind string `yaml:"bind"`

	Timeouts Timeouts `yaml:"timeouts"`

	// RefreshMinutes re-introspects the origin on this interval. Zero
	// disables background refresh.
	RefreshMinutes int `yaml:"refresh_minutes"`

	Embedder embed.Config `yaml:"embedder"`

	// CacheDSN optionally persists embeddings across restarts, e.g.
	// sqlite:///var/lib/gqlbridge/cache.db or postgres://...
	CacheDSN string `yaml:"cache_dsn"`

	Discover Discover `yaml:"discover"`
}

type Timeouts struct {
	OriginSeconds int `yaml:"origin_seconds"`
}

type Discover struct {
	TopK      int   `yaml:"top_k"`
	Constrain *bool `yaml:"constrain"`
}

// Constrained reports whether agentic results are restricted to connected
// fields. Defaults to true when unset.
func (d Discover) Constrained() bool {
	return d.Constrain == nil || *d.Constrain
}

// OriginTimeout returns the per-attempt origin timeout, with the default
// applied.
func (c *Config) OriginTimeout() time.Duration {
	if c.Timeouts.OriginSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Timeouts.OriginSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshMinutes <= 0 {
		return 0
	}
	return time.Duration(c.RefreshMinutes) * time.Minute
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bind == "" {
		cfg.Bind = "127.0.0.1:8080"
	}
	if cfg.Embedder.APIKey == "" {
		cfg.Embedder.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an http(s) URL: %q", cfg.Endpoint)
	}
	if _, err := explore.ParseStrategy(cfg.Strategy); err != nil {
		return err
	}
	if cfg.Timeouts.OriginSeconds < 0 {
		return fmt.Errorf("timeouts.origin_seconds must not be negative")
	}
	if cfg.RefreshMinutes < 0 {
		return fmt.Errorf("refresh_minutes must not be negative")
	}
	if cfg.Discover.TopK < 0 {
		return fmt.Errorf("discover.top_k must not be negative")
	}
	return nil
}
