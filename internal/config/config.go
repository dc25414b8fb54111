// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
	ActorPoolSize  int
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type    string // "mongo" or "memory"
	URI     string
	Name    string
	Timeout time.Duration
}

// AuthConfig holds token settings
type AuthConfig struct {
	Secret string
	Header string
}

// FeedConfig controls page sizes for listings
type FeedConfig struct {
	PageSize       int
	SuggestionSize int
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Auth           *AuthConfig
	Feed           *FeedConfig
	Log            *LogConfig
	AllowedOrigins []string
	Debug          bool
}

const (
	DBTypeMongo  = "mongo"
	DBTypeMemory = "memory"

	// only used when DEBUG=true and JWT_SECRET is unset
	debugSecret = "before-after-debug-secret"
)

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		RequestTimeout: 5 * time.Second,
		ActorPoolSize:  8,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type:    DBTypeMongo,
		URI:     "mongodb://localhost:27017",
		Name:    "before_after",
		Timeout: 5 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	envLocations := []string{
		".env",
		"../../.env", // project root when running from cmd/server
	}
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	serverConfig := DefaultConfig()

	var err error
	if serverConfig.Port, err = intFromEnv("PORT", serverConfig.Port); err != nil {
		return nil, err
	}
	serverConfig.Host = getEnvOrDefault("HOST", serverConfig.Host)
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}
	if serverConfig.RequestTimeout, err = durationFromEnv("REQUEST_TIMEOUT", serverConfig.RequestTimeout); err != nil {
		return nil, err
	}
	if serverConfig.ActorPoolSize, err = intFromEnv("ACTOR_POOL_SIZE", serverConfig.ActorPoolSize); err != nil {
		return nil, err
	}
	if serverConfig.ActorPoolSize < 1 {
		return nil, fmt.Errorf("ACTOR_POOL_SIZE must be at least 1, got %d", serverConfig.ActorPoolSize)
	}

	dbConfig := DefaultDatabaseConfig()
	dbConfig.Type = getEnvOrDefault("DB_TYPE", dbConfig.Type)
	switch dbConfig.Type {
	case DBTypeMongo:
		dbConfig.URI = getEnvOrDefault("MONGODB_URI", dbConfig.URI)
		dbConfig.Name = getEnvOrDefault("MONGODB_DATABASE", dbConfig.Name)
	case DBTypeMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (expected %q or %q)", dbConfig.Type, DBTypeMongo, DBTypeMemory)
	}
	if dbConfig.Timeout, err = durationFromEnv("DB_TIMEOUT", dbConfig.Timeout); err != nil {
		return nil, err
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		Auth:           &AuthConfig{Header: getEnvOrDefault("AUTH_HEADER", "x-auth")},
		Feed:           &FeedConfig{PageSize: 20, SuggestionSize: 10},
		Log:            &LogConfig{Level: slog.LevelInfo, Format: getEnvOrDefault("LOG_FORMAT", "text")},
		AllowedOrigins: []string{"*"},
		Debug:          os.Getenv("DEBUG") == "true",
	}

	config.Auth.Secret = os.Getenv("JWT_SECRET")
	if config.Auth.Secret == "" {
		if !config.Debug {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required")
		}
		config.Auth.Secret = debugSecret
	}

	if config.Feed.PageSize, err = intFromEnv("FEED_PAGE_SIZE", config.Feed.PageSize); err != nil {
		return nil, err
	}
	if config.Feed.SuggestionSize, err = intFromEnv("SUGGESTION_SIZE", config.Feed.SuggestionSize); err != nil {
		return nil, err
	}
	if config.Feed.PageSize < 1 || config.Feed.SuggestionSize < 1 {
		return nil, fmt.Errorf("FEED_PAGE_SIZE and SUGGESTION_SIZE must be positive")
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := config.Log.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
	}
	if config.Debug {
		config.Log.Level = slog.LevelDebug
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	return config, nil
}

// Addr returns host:port for the HTTP listener
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
