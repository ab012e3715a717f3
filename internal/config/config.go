package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	SessionSecret string
	Logging       LoggingConfig
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

// Local development connects to a plain local cluster; production deploys
// supply DATABASE_URL.
const defaultDatabaseURL = "postgres://localhost:5432/donor_duplicates?sslmode=disable"

// Load reads configuration from the environment, applying defaults. A .env
// file is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getEnv("APP_ADDR", ":8080"),
		DatabaseURL:   getEnv("DATABASE_URL", defaultDatabaseURL),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
