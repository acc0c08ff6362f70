package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gqlbridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://api.example.com/graphql
headers:
  Authorization: Bearer token
strategy: agentic
bind: 0.0.0.0:9090
timeouts:
  origin_seconds: 30
refresh_minutes: 10
embedder:
  provider: openai
  model: text-embedding-3-small
cache_dsn: "sqlite://:memory:"
discover:
  top_k: 7
  constrain: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "https://api.example.com/graphql" {
		t.Fatalf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.Headers["Authorization"] != "Bearer token" {
		t.Fatalf("headers = %v", cfg.Headers)
	}
	if cfg.OriginTimeout() != 30*time.Second {
		t.Fatalf("origin timeout = %v", cfg.OriginTimeout())
	}
	if cfg.RefreshInterval() != 10*time.Minute {
		t.Fatalf("refresh interval = %v", cfg.RefreshInterval())
	}
	if cfg.Discover.TopK != 7 || cfg.Discover.Constrained() {
		t.Fatalf("discover = %+v", cfg.Discover)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "endpoint: http://localhost:4000/graphql\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bind != "127.0.0.1:8080" {
		t.Fatalf("default bind = %q", cfg.Bind)
	}
	if cfg.Strategy != "" {
		t.Fatalf("strategy should stay empty and default downstream, got %q", cfg.Strategy)
	}
	if cfg.OriginTimeout() != 15*time.Second {
		t.Fatalf("default origin timeout = %v", cfg.OriginTimeout())
	}
	if !cfg.Discover.Constrained() {
		t.Fatalf("constraining defaults to on")
	}
	if cfg.RefreshInterval() != 0 {
		t.Fatalf("refresh defaults to off, got %v", cfg.RefreshInterval())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		errPart string
	}{
		{"missing endpoint", "strategy: discovery\n", "endpoint is required"},
		{"bad endpoint scheme", "endpoint: ftp://example.com\n", "http(s)"},
		{"unknown strategy", "endpoint: http://x.test/graphql\nstrategy: eager\n", "unknown strategy"},
		{"negative timeout", "endpoint: http://x.test/graphql\ntimeouts:\n  origin_seconds: -1\n", "origin_seconds"},
		{"negative top_k", "endpoint: http://x.test/graphql\ndiscover:\n  top_k: -2\n", "top_k"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.content))
			if err == nil || !strings.Contains(err.Error(), c.errPart) {
				t.Fatalf("expected error containing %q, got %v", c.errPart, err)
			}
		})
	}
}
