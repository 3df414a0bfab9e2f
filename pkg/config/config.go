package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration sourced from the environment.
type Config struct {
	DatabaseURL      string
	Port             string
	Environment      string
	ScoringConfig    string // path to the scoring YAML; empty means built-in defaults
	AllowedOrigins   string
	RebuildBatchSize int
}

// New creates a new configuration instance from environment variables.
func New() *Config {
	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENV", "development"),
		ScoringConfig:    getEnv("SCORING_CONFIG", ""),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", ""),
		RebuildBatchSize: getEnvAsInt("REBUILD_BATCH_SIZE", 500),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetAllowedOrigins returns the configured CORS origins.
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
