// Package config loads ByteNewz settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "BYTENEWZ_CONFIG"
	addrEnv           = "BYTENEWZ_ADDR"
	newsProviderEnv   = "NEWS_PROVIDER"
	newsAPIKeyEnv     = "NEWSAPI_API_KEY"
	apiTubeKeyEnv     = "APITUBE_API_KEY"
	newsDataHubKeyEnv = "NEWSDATAHUB_API_KEY"
	googleAPIKeyEnv   = "GOOGLE_API_KEY"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	aiProviderEnv     = "AI_PROVIDER"
	logLevelEnv       = "LOG_LEVEL"
	usageDriverEnv    = "USAGE_DRIVER"
	usageDSNEnv       = "USAGE_DSN"

	appDir = "bytenewz"
)

// Configuration validation errors.
var (
	ErrUnknownProvider    = errors.New("news.provider must be one of: newsapi, apitube, newsdatahub, rss")
	ErrInvalidPageSize    = errors.New("news.pageSize must be between 1 and 100")
	ErrNoFeeds            = errors.New("news.rss.feeds needs at least one feed when news.provider is rss")
	ErrUnknownAIProvider  = errors.New("ai.provider must be one of: gemini, openai")
	ErrNegativeSpacing    = errors.New("ai.requestSpacing must be non-negative")
	ErrInvalidTimeout     = errors.New("timeouts must be positive")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrUnknownUsageDriver = errors.New("usage.driver must be empty, sqlite or postgres")
	ErrUsageDSNRequired   = errors.New("usage.dsn is required for the postgres driver")
	ErrMissingAddr        = errors.New("server.addr is required")
	ErrInvalidRetention   = errors.New("usage.retention must be non-negative and usage.pruneInterval positive when retention is set")
)

// Config holds high-level settings required across the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	News    NewsConfig    `yaml:"news"`
	AI      AIConfig      `yaml:"ai"`
	Usage   UsageConfig   `yaml:"usage"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// NewsConfig selects the news provider and its defaults.
type NewsConfig struct {
	Provider    string         `yaml:"provider"`
	Language    string         `yaml:"language"`
	Country     string         `yaml:"country"`
	PageSize    int            `yaml:"pageSize"`
	Timeout     time.Duration  `yaml:"timeout"`
	NewsAPI     EndpointConfig `yaml:"newsapi"`
	APITube     EndpointConfig `yaml:"apitube"`
	NewsDataHub EndpointConfig `yaml:"newsdatahub"`
	RSS         RSSConfig      `yaml:"rss"`
}

// EndpointConfig locates one API-backed provider.
type EndpointConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// RSSConfig lists feed URLs per category.
type RSSConfig struct {
	Feeds map[string][]string `yaml:"feeds"`
}

// AIConfig defines how alternate headlines and summaries are generated.
type AIConfig struct {
	Provider       string        `yaml:"provider"`
	RequestSpacing time.Duration `yaml:"requestSpacing"`
	Timeout        time.Duration `yaml:"timeout"`
	Gemini         GeminiConfig  `yaml:"gemini"`
	OpenAI         OpenAIConfig  `yaml:"openai"`
}

// GeminiConfig defines how to contact the generateContent API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible API.
type OpenAIConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// UsageConfig enables the upstream usage ledger. An empty driver disables it.
// Events older than Retention are pruned every PruneInterval; a zero
// Retention keeps everything.
type UsageConfig struct {
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"pruneInterval"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultPath is the config file looked up when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appDir, "config.yaml")
}

// DefaultUsageDSN is the SQLite ledger location used when none is configured.
func DefaultUsageDSN() string {
	return filepath.Join(xdg.DataHome, appDir, "usage.db")
}

// Load reads .env, the YAML file at path (or the env/default location) and
// environment overrides, then validates the result. API keys are optional
// here; a missing key surfaces when its provider is called.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		path, explicit = DefaultPath(), false
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{addrEnv, &c.Server.Addr},
		{newsProviderEnv, &c.News.Provider},
		{newsAPIKeyEnv, &c.News.NewsAPI.APIKey},
		{apiTubeKeyEnv, &c.News.APITube.APIKey},
		{newsDataHubKeyEnv, &c.News.NewsDataHub.APIKey},
		{googleAPIKeyEnv, &c.AI.Gemini.APIKey},
		{openAIAPIKeyEnv, &c.AI.OpenAI.APIKey},
		{aiProviderEnv, &c.AI.Provider},
		{logLevelEnv, &c.Logging.Level},
		{usageDriverEnv, &c.Usage.Driver},
		{usageDSNEnv, &c.Usage.DSN},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) normalize() {
	c.News.Provider = strings.ToLower(strings.TrimSpace(c.News.Provider))
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.Usage.Driver = strings.ToLower(strings.TrimSpace(c.Usage.Driver))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Usage.Driver == "sqlite" && c.Usage.DSN == "" {
		c.Usage.DSN = DefaultUsageDSN()
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return ErrMissingAddr
	}

	switch c.News.Provider {
	case "newsapi", "apitube", "newsdatahub":
	case "rss":
		if len(c.News.RSS.Feeds) == 0 {
			return ErrNoFeeds
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownProvider, c.News.Provider)
	}

	if c.News.PageSize < 1 || c.News.PageSize > 100 {
		return ErrInvalidPageSize
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownAIProvider, c.AI.Provider)
	}

	if c.AI.RequestSpacing < 0 {
		return ErrNegativeSpacing
	}
	if c.News.Timeout <= 0 || c.AI.Timeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	switch c.Usage.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Usage.DSN == "" {
			return ErrUsageDSNRequired
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownUsageDriver, c.Usage.Driver)
	}

	if c.Usage.Retention < 0 || (c.Usage.Retention > 0 && c.Usage.PruneInterval <= 0) {
		return ErrInvalidRetention
	}

	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		News: NewsConfig{
			Provider: "newsapi",
			Language: "en",
			Country:  "us",
			PageSize: 12,
			Timeout:  15 * time.Second,
			NewsAPI:  EndpointConfig{BaseURL: "https://newsapi.org"},
			APITube:  EndpointConfig{BaseURL: "https://api.apitube.io"},
			NewsDataHub: EndpointConfig{
				BaseURL: "https://api.newsdatahub.com",
			},
		},
		AI: AIConfig{
			Provider:       "gemini",
			RequestSpacing: 2 * time.Second,
			Timeout:        20 * time.Second,
			Gemini: GeminiConfig{
				Endpoint: "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			},
			OpenAI: OpenAIConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You are a news editor who writes concise, factual copy.",
			},
		},
		Usage: UsageConfig{
			Retention:     30 * 24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
