package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer        string // Issuer claim for access tokens (default: lockhaven-identity)
	AccessSecret  string // Required: HMAC secret for signing access tokens (min 32 bytes)
	RefreshSecret string // Required: HMAC secret for fingerprinting refresh tokens

	AccessTTL            time.Duration // Access token lifetime (default: 15m)
	RefreshTTL           time.Duration // Refresh token lifetime (default: 168h)
	DatabaseFile         string        // Path to SQLite database file (default: ./identity.db)
	PepperFile           string        // Path to password hashing pepper file (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired token sweep interval (default: 1h)
}

// LoadConfig reads configuration from the environment, with an optional .env
// file for local development.
func LoadConfig() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:               getEnvOrDefault("IDENTITY_ISSUER", "lockhaven-identity"),
		AccessSecret:         os.Getenv("IDENTITY_ACCESS_SECRET"),
		RefreshSecret:        os.Getenv("IDENTITY_REFRESH_SECRET"),
		AccessTTL:            getEnvDurationOrDefault("IDENTITY_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:           getEnvDurationOrDefault("IDENTITY_REFRESH_TTL", 7*24*time.Hour),
		DatabaseFile:         getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:           getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.AccessSecret == "" {
		return Config{}, fmt.Errorf("IDENTITY_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return Config{}, fmt.Errorf("IDENTITY_REFRESH_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
