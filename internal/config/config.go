package config

import (
	"os"
	"strconv"
)

// Config holds service configuration, read from the environment with
// sensible defaults for local development.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURI string

	AdminUsername string
	AdminPassword string
	JWTSecret     string

	// CounterMaxRetries bounds internal retries of a failed tryCount before
	// the error is surfaced to the caller.
	CounterMaxRetries int
}

// Load builds the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnvOrDefault("MONGO_DB", "surveyflow"),
		RedisURI: getEnvOrDefault("REDIS_URI", "localhost:6379"),

		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "password123"),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),

		CounterMaxRetries: getEnvIntOrDefault("COUNTER_MAX_RETRIES", 3),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
