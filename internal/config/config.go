package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Rates    RatesConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration for the task queue
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// AuthConfig holds session/authentication configuration
type AuthConfig struct {
	// Timeout bounds every network round trip the auth layer makes
	// (session fetch, sign-in/out, role lookup).
	Timeout time.Duration
	// TokenTTL is the lifetime of an issued session token.
	TokenTTL time.Duration
}

// RatesConfig holds exchange-rate fetching configuration
type RatesConfig struct {
	URL     string        // upstream exchange-rate endpoint (base KES)
	Timeout time.Duration // budget for a single rate fetch
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dbURL := getEnv("DATABASE_URL", "makao.sqlite")
	redisAddr := getEnv("REDIS_ADDRESS", "localhost:6379")
	port := getEnv("HTTP_PORT", "8080")

	authTimeout, err := getEnvSeconds("AUTH_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}

	tokenTTLHours, err := getEnvInt("AUTH_TOKEN_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}

	ratesTimeout, err := getEnvSeconds("RATES_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Server: ServerConfig{
			Port:        port,
			CORSOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
		},
		Auth: AuthConfig{
			Timeout:  authTimeout,
			TokenTTL: time.Duration(tokenTTLHours) * time.Hour,
		},
		Rates: RatesConfig{
			URL:     getEnv("RATES_URL", "https://api.exchangerate-api.com/v4/latest/KES"),
			Timeout: ratesTimeout,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvSeconds(key string, fallback int) (time.Duration, error) {
	n, err := getEnvInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
