package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Logging    LoggingConfig
	Moderation ModerationConfig
	Identity   IdentityConfig
	Tasks      TasksConfig
	Cache      CacheConfig
	Feed       FeedConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int
	AllowedOrigins string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	File   string
}

// ModerationConfig holds the sensitive keyword list
type ModerationConfig struct {
	SensitiveKeywords string
}

// IdentityConfig holds the shared secret of the identity provider
type IdentityConfig struct {
	JWTSecret string
}

// TasksConfig holds the credential of the generation orchestrator
type TasksConfig struct {
	OrchestratorToken string
}

// CacheConfig holds the optional Redis read cache settings
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// FeedConfig holds provider feed settings
type FeedConfig struct {
	LatestURL   string
	TrendingURL string
	SongsFile   string
	Provider    string
	RateLimit   float64
}

// Load reads config/local.env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")

	cfg := &Config{}
	var problems []string

	cfg.Database.URL = os.Getenv("DATABASE_URL")

	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid PORT: %v", err))
	}
	cfg.Server.Port = port
	cfg.Server.AllowedOrigins = getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	cfg.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	cfg.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	cfg.Logging.File = os.Getenv("LOG_FILE")

	cfg.Moderation.SensitiveKeywords = os.Getenv("SENSITIVE_KEYWORDS")
	cfg.Identity.JWTSecret = os.Getenv("IDENTITY_JWT_SECRET")
	cfg.Tasks.OrchestratorToken = os.Getenv("ORCHESTRATOR_TOKEN")

	cfg.Cache.RedisURL = os.Getenv("REDIS_URL")
	ttl, err := time.ParseDuration(getEnvOrDefault("CACHE_TTL", "60s"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid CACHE_TTL: %v", err))
	}
	cfg.Cache.TTL = ttl

	cfg.Feed.LatestURL = os.Getenv("FEED_LATEST_URL")
	cfg.Feed.TrendingURL = os.Getenv("FEED_TRENDING_URL")
	cfg.Feed.SongsFile = getEnvOrDefault("FEED_SONGS_FILE", "data/songs.json")
	cfg.Feed.Provider = getEnvOrDefault("FEED_PROVIDER", "suno")
	rateLimit, err := strconv.ParseFloat(getEnvOrDefault("FEED_RATE_LIMIT", "2"), 64)
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid FEED_RATE_LIMIT: %v", err))
	}
	cfg.Feed.RateLimit = rateLimit

	if len(problems) > 0 {
		return nil, fmt.Errorf("load config:\n  - %s", strings.Join(problems, "\n  - "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Database.URL == "" {
		errors = append(errors, "DATABASE_URL is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if c.Cache.TTL < 0 {
		errors = append(errors, "CACHE_TTL must not be negative")
	}

	if c.Feed.RateLimit < 0 {
		errors = append(errors, "FEED_RATE_LIMIT must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
