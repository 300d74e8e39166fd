// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Fetch modes select how site documents are retrieved. The static mode
// fetches document snapshots over plain HTTP; the browser mode drives a
// headless browser session for pages that only render client-side.
const (
	FetchModeStatic  = "static"
	FetchModeBrowser = "browser"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	PlantNet  PlantNetConfig  `mapstructure:"plantnet"`
	Lookup    LookupConfig    `mapstructure:"lookup"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SiteConfig holds the horticultural reference site settings.
type SiteConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	SearchPath     string        `mapstructure:"search_path"`
	FetchMode      string        `mapstructure:"fetch_mode"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	ConsentTimeout time.Duration `mapstructure:"consent_timeout"`
}

// GeminiConfig holds the generative provider settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// PlantNetConfig holds the image identification API settings.
type PlantNetConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Project    string        `mapstructure:"project"`
	NumResults int           `mapstructure:"num_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LookupConfig bounds the worker pool that runs blocking lookups.
type LookupConfig struct {
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds request rate limits.
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load reads configuration from an optional config file plus environment
// variables (prefix PLANTDETAILS) and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/plantdetails/")

	v.SetEnvPrefix("PLANTDETAILS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("site.base_url", "https://www.rhs.org.uk")
	v.SetDefault("site.search_path", "/plants/search-results?query=")
	v.SetDefault("site.fetch_mode", FetchModeStatic)
	v.SetDefault("site.timeout", "10s")
	v.SetDefault("site.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36")
	v.SetDefault("site.consent_timeout", "3s")

	v.SetDefault("gemini.model", "gemini-2.0-flash")

	v.SetDefault("plantnet.base_url", "https://my-api.plantnet.org/v2/identify")
	v.SetDefault("plantnet.project", "all")
	v.SetDefault("plantnet.num_results", 3)
	v.SetDefault("plantnet.timeout", "30s")

	v.SetDefault("lookup.workers", 4)
	v.SetDefault("lookup.queue_size", 64)
	v.SetDefault("lookup.timeout", "45s")

	v.SetDefault("ratelimit.per_ip", 60)
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Site.BaseURL == "" {
		return fmt.Errorf("site base URL cannot be empty")
	}
	parsed, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid site base URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("site base URL must include a host")
	}
	if c.Site.SearchPath == "" {
		return fmt.Errorf("site search path cannot be empty")
	}
	if c.Site.FetchMode != FetchModeStatic && c.Site.FetchMode != FetchModeBrowser {
		return fmt.Errorf("site fetch mode must be %q or %q, got %q", FetchModeStatic, FetchModeBrowser, c.Site.FetchMode)
	}
	if c.Site.Timeout <= 0 {
		return fmt.Errorf("site timeout must be positive")
	}
	if c.Site.UserAgent == "" {
		return fmt.Errorf("site user agent cannot be empty")
	}
	if c.Site.ConsentTimeout <= 0 {
		return fmt.Errorf("site consent timeout must be positive")
	}

	if c.Gemini.Model == "" {
		return fmt.Errorf("gemini model cannot be empty")
	}

	if c.PlantNet.BaseURL == "" {
		return fmt.Errorf("plantnet base URL cannot be empty")
	}
	if c.PlantNet.NumResults <= 0 {
		return fmt.Errorf("plantnet result count must be positive")
	}
	if c.PlantNet.Timeout <= 0 {
		return fmt.Errorf("plantnet timeout must be positive")
	}

	if c.Lookup.Workers <= 0 {
		return fmt.Errorf("lookup workers must be positive")
	}
	if c.Lookup.QueueSize <= 0 {
		return fmt.Errorf("lookup queue size must be positive")
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}

	if c.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive")
	}

	return nil
}
