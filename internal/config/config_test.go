package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, addrEnv, newsProviderEnv, newsAPIKeyEnv, apiTubeKeyEnv, newsDataHubKeyEnv,
		googleAPIKeyEnv, openAIAPIKeyEnv, aiProviderEnv, logLevelEnv, usageDriverEnv, usageDSNEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
news:
  provider: NewsDataHub
  pageSize: 20
  newsdatahub:
    apiKey: file-key
ai:
  requestSpacing: 500ms
server:
  allowedOrigins: ["https://bytenewz.example"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.News.Provider != "newsdatahub" || cfg.News.PageSize != 20 || cfg.News.NewsDataHub.APIKey != "file-key" {
		t.Fatalf("file values not applied: %+v", cfg.News)
	}
	if cfg.AI.RequestSpacing != 500*time.Millisecond {
		t.Fatalf("unexpected spacing %v", cfg.AI.RequestSpacing)
	}
	if cfg.News.Country != "us" || cfg.AI.Provider != "gemini" || cfg.Server.Addr != ":8080" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://bytenewz.example" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "news:\n  newsapi:\n    apiKey: file-key\n")
	t.Setenv(configPathEnv, path)
	t.Setenv(newsAPIKeyEnv, "env-key")
	t.Setenv(googleAPIKeyEnv, "google")
	t.Setenv(usageDriverEnv, "SQLite")
	t.Setenv(addrEnv, ":9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.News.NewsAPI.APIKey != "env-key" || cfg.AI.Gemini.APIKey != "google" || cfg.Server.Addr != ":9090" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Usage.Driver != "sqlite" || cfg.Usage.DSN == "" {
		t.Fatalf("sqlite ledger needs a default dsn: %+v", cfg.Usage)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	clearEnv(t)

	if _, err := Load(writeConfig(t, "news: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"unknown provider", func(c *Config) { c.News.Provider = "bing" }, ErrUnknownProvider},
		{"rss without feeds", func(c *Config) { c.News.Provider = "rss" }, ErrNoFeeds},
		{"page size zero", func(c *Config) { c.News.PageSize = 0 }, ErrInvalidPageSize},
		{"page size too large", func(c *Config) { c.News.PageSize = 101 }, ErrInvalidPageSize},
		{"unknown ai provider", func(c *Config) { c.AI.Provider = "claude" }, ErrUnknownAIProvider},
		{"negative spacing", func(c *Config) { c.AI.RequestSpacing = -time.Second }, ErrNegativeSpacing},
		{"zero timeout", func(c *Config) { c.News.Timeout = 0 }, ErrInvalidTimeout},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
		{"unknown usage driver", func(c *Config) { c.Usage.Driver = "mysql" }, ErrUnknownUsageDriver},
		{"postgres without dsn", func(c *Config) { c.Usage.Driver = "postgres" }, ErrUsageDSNRequired},
		{"negative retention", func(c *Config) { c.Usage.Retention = -time.Hour }, ErrInvalidRetention},
		{"retention without interval", func(c *Config) { c.Usage.PruneInterval = 0 }, ErrInvalidRetention},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, ErrMissingAddr},
	}

	for _, tt := range tests {
		cfg := defaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.want == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}
