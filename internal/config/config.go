package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Quotes    QuotesConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// QuotesConfig holds quote-provider configuration.
// EncryptionKey is a base64 fernet key used to encrypt the provider API
// token at rest; an empty key disables token storage.
type QuotesConfig struct {
	EncryptionKey string
}

// SchedulerConfig holds cron schedules for background jobs.
type SchedulerConfig struct {
	SnapshotSpec string // cron spec for the nightly snapshot rebuild
	PriceSpec    string // cron spec for the price refresh
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/trading_diary.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Quotes: QuotesConfig{
			EncryptionKey: getEnv("QUOTES_ENCRYPTION_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			SnapshotSpec: getEnv("SNAPSHOT_CRON", "15 0 * * *"),
			PriceSpec:    getEnv("PRICE_REFRESH_CRON", "0 18 * * 1-5"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
