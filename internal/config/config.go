package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store backend selectors for STORE_BACKEND.
const (
	StoreBackendRedis  = "redis"
	StoreBackendFile   = "file"
	StoreBackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// StoreBackend selects where session state persists: redis, file
	// or memory. Memory loses everything on restart and exists for
	// development only.
	StoreBackend string
	RedisURL     string
	StoreFile    string

	// BankURL and IndexURL point at the two bank documents. They accept
	// http(s) URLs or local file paths.
	BankURL  string
	IndexURL string

	// ImageDir is the directory the question page images are served from.
	ImageDir string

	// AllowedOrigins controls HTTP CORS. Empty slice means all origins
	// are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		StoreBackend:   getEnv("STORE_BACKEND", StoreBackendFile),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StoreFile:      getEnv("STORE_FILE", "./data/quizdrill-store.json"),
		BankURL:        getEnv("BANK_URL", "./data/question-bank.json"),
		IndexURL:       getEnv("INDEX_URL", "./data/chapter-index.json"),
		ImageDir:       getEnv("IMAGE_DIR", "./data/output"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
