package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	UploadDir     string
	UploadMaxSize int64

	JWTSecret     string
	TokenLifetime time.Duration

	OTPLifetime    time.Duration
	OTPMaxAttempts int

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	SMSSenderID  string

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	return &Config{
		ServerPort:     getEnv("PORT", "5000"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./metabridge.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		UploadDir:     getEnv("UPLOAD_DIR", "./uploads/reports"),
		UploadMaxSize: 10 * 1024 * 1024, // 10MB

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenLifetime: 24 * time.Hour,

		OTPLifetime:    5 * time.Minute,
		OTPMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "MetaBridge Support"),
		SMSSenderID:  getEnv("SMS_SENDER_ID", ""),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   time.Minute,
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
