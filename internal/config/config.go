package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration for the backend.
type Config struct {
	// HTTP server
	Addr             string
	APIURL           string
	GinMode          string
	LogFormat        string
	CORSAllowOrigins []string

	// Database
	DBPath string

	// Amount parsing
	MaxAmount decimal.Decimal

	// Purge of logically deleted bills
	PurgeRetention time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if it exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:             getEnv("ADDR", ":8080"),
		APIURL:           getEnv("API_URL", "http://localhost:8080"),
		GinMode:          getEnv("GIN_MODE", "release"),
		LogFormat:        getEnv("LOG_FORMAT", ""),
		CORSAllowOrigins: strings.Fields(getEnv("CORS_ALLOW_ORIGINS", "")),

		DBPath: getEnv("DB_PATH", "data/billfold.db"),

		MaxAmount: getEnvDecimal("MAX_AMOUNT", decimal.NewFromInt(1_000_000)),

		PurgeRetention: getEnvDuration("PURGE_RETENTION", 30*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
