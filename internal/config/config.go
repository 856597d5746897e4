// Package config provides widget and stub server configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/session"
	"github.com/ashureev/chatwidget/internal/store"
)

// FileEnv names the environment variable pointing at an optional YAML file.
const FileEnv = "WIDGET_CONFIG"

// Config holds all application configuration.
type Config struct {
	Endpoint      string        `yaml:"endpoint" env:"CHAT_ENDPOINT"`
	DefaultLocale string        `yaml:"default_locale" env:"CHAT_DEFAULT_LOCALE"`
	AuthToken     string        `yaml:"auth_token" env:"CHAT_AUTH_TOKEN"`
	AuthPage      string        `yaml:"auth_page" env:"CHAT_AUTH_PAGE"`
	SessionKey    string        `yaml:"session_key" env:"CHAT_WIDGET_SESSION_KEY"`
	StoreDriver   string        `yaml:"store_driver" env:"STORE_DRIVER"`
	StorePath     string        `yaml:"store_path" env:"STORE_PATH"`
	Timeout       time.Duration `yaml:"timeout" env:"CHAT_TIMEOUT"`
	MaxUploadMB   int           `yaml:"max_upload_mb" env:"MAX_UPLOAD_SIZE_MB"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
	Stub          StubConfig    `yaml:"stub" envPrefix:"STUB_"`
}

// StubConfig controls the local stand-in chat endpoint.
type StubConfig struct {
	Port           string        `yaml:"port" env:"PORT"`
	RateLimit      int           `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateWindow     time.Duration `yaml:"rate_window" env:"RATE_WINDOW"`
	RetryAfter     int           `yaml:"retry_after" env:"RETRY_AFTER"`
	IssueSessions  bool          `yaml:"issue_sessions" env:"ISSUE_SESSIONS"`
	AuthToken      string        `yaml:"auth_token" env:"AUTH_TOKEN"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Endpoint:      "http://localhost:8080/api/chat",
		DefaultLocale: string(domain.LocaleEnglish),
		SessionKey:    session.DefaultKey,
		StoreDriver:   store.DriverFile,
		StorePath:     "./data/widget",
		Timeout:       30 * time.Second,
		MaxUploadMB:   10,
		LogLevel:      "info",
		Stub: StubConfig{
			Port:           "8080",
			RateLimit:      20,
			RateWindow:     time.Minute,
			RetryAfter:     1,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads the YAML file named by WIDGET_CONFIG, if any, and then applies
// environment variables on top.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if l, ok := domain.ParseLocale(cfg.DefaultLocale); ok {
		cfg.DefaultLocale = string(l)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CHAT_ENDPOINT must be an http(s) URL, got %q", c.Endpoint)
	}
	if _, ok := domain.ParseLocale(c.DefaultLocale); !ok {
		return fmt.Errorf("CHAT_DEFAULT_LOCALE must be en or ar, got %q", c.DefaultLocale)
	}
	if c.SessionKey == "" {
		return fmt.Errorf("CHAT_WIDGET_SESSION_KEY cannot be empty")
	}
	switch c.StoreDriver {
	case store.DriverFile, store.DriverSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH cannot be empty")
		}
	case store.DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be file, sqlite or memory, got %q", c.StoreDriver)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be > 0")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be > 0")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Stub.Port == "" {
		return fmt.Errorf("STUB_PORT cannot be empty")
	}
	if c.Stub.RateLimit <= 0 {
		return fmt.Errorf("STUB_RATE_LIMIT must be > 0")
	}
	if c.Stub.RateWindow <= 0 {
		return fmt.Errorf("STUB_RATE_WINDOW must be > 0")
	}
	if c.Stub.RetryAfter < 0 {
		return fmt.Errorf("STUB_RETRY_AFTER must be >= 0")
	}
	return nil
}

// Locale returns the configured default locale.
func (c *Config) Locale() domain.Locale {
	l, ok := domain.ParseLocale(c.DefaultLocale)
	if !ok {
		return domain.LocaleEnglish
	}
	return l
}

// MaxUploadBytes returns the attachment size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return l, nil
}

// IsDevelopment returns true when the endpoint points at this machine.
func (c *Config) IsDevelopment() bool {
	return strings.Contains(c.Endpoint, "localhost") ||
		strings.Contains(c.Endpoint, "127.0.0.1")
}
