package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Chat Settings
	ChatCountdownSeconds    int
	HandshakeTimeoutSeconds int
	NonceTTLSeconds         int

	// Security
	JWTSecret         string
	AdminTokenHash    string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/breeze?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "3001"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Chat Settings
		ChatCountdownSeconds:    getEnvInt("CHAT_COUNTDOWN_SECONDS", 300),
		HandshakeTimeoutSeconds: getEnvInt("HANDSHAKE_TIMEOUT_SECONDS", 60),
		NonceTTLSeconds:         getEnvInt("NONCE_TTL_SECONDS", 300),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		AdminTokenHash:    getEnv("ADMIN_TOKEN_HASH", ""),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
