package internal

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, loaded from the environment.
type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Store configuration
	StoreBackend    string // "file" or "mongo"
	StoreFilePath   string // Path of the JSON document (file backend)
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Shared secret for the listing endpoint
	APIToken string

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Fixed recipient of the admin notification
	AdminEmail string

	// Upload limit in bytes
	MaxUploadBytes int64

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

// NewConfig loads configuration from the environment, reading a .env file
// first when one exists.
func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Store defaults to the flat-file backend for development
		StoreBackend:    getEnv("STORE_BACKEND", "file"),
		StoreFilePath:   getEnv("STORE_FILE_PATH", "./data/bookings.json"),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "stagebook"),
		MongoCollection: getEnv("MONGO_COLLECTION", "bookings"),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@stagebook.io"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Stagebook"),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.APIToken = os.Getenv("API_TOKEN")
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API_TOKEN is required")
	}

	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	if cfg.AdminEmail == "" {
		return nil, fmt.Errorf("ADMIN_EMAIL is required")
	}

	// Validate store configuration
	if cfg.StoreBackend == "mongo" {
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORE_BACKEND is 'mongo'")
		}
	} else if cfg.StoreBackend != "file" {
		return nil, fmt.Errorf("STORE_BACKEND must be either 'file' or 'mongo', got: %s", cfg.StoreBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}
