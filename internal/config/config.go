// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// Image provider (opaque URL-producing service)
	ImageProviderURL   string
	ImageProviderModel string

	// CORS
	CORSOrigins []string

	// Auth rate limiting (login/register brute-force guard)
	AuthRateLimitWindow        time.Duration
	AuthRateLimitMax           int
	AuthRateLimitIdleTTL       time.Duration
	AuthRateLimitSweepInterval time.Duration

	// Payment gateway call deadline
	GatewayTimeout time.Duration

	// Cleanup of stale pending payments
	CleanupEnabled  bool
	CleanupMaxAge   time.Duration
	CleanupInterval time.Duration

	// Object Storage (S3-compatible) for mirroring generated images
	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3
	StorageAccessKey string // AWS_ACCESS_KEY_ID
	StorageSecretKey string // AWS_SECRET_ACCESS_KEY
	StorageBucket    string
	StorageRegion    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:visionai.db?_journal=WAL&_timeout=5000"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		ImageProviderURL:   getEnv("IMAGE_PROVIDER_URL", "https://image.pollinations.ai/prompt"),
		ImageProviderModel: getEnv("IMAGE_PROVIDER_MODEL", "flux"),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		AuthRateLimitWindow:        getEnvDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
		AuthRateLimitMax:           getEnvInt("AUTH_RATE_LIMIT_MAX", 5),
		AuthRateLimitIdleTTL:       getEnvDuration("AUTH_RATE_LIMIT_IDLE_TTL", 30*time.Minute),
		AuthRateLimitSweepInterval: getEnvDuration("AUTH_RATE_LIMIT_SWEEP_INTERVAL", 30*time.Minute),

		GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		CleanupEnabled:  getEnvBool("CLEANUP_ENABLED", true),
		CleanupMaxAge:   getEnvDuration("CLEANUP_MAX_AGE", 24*time.Hour),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", 1*time.Hour),

		// S3-compatible storage - uses the standard AWS env vars
		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),
	}

	// Enable storage if bucket is configured
	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AuthRateLimitMax <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT_MAX must be positive")
	}

	return cfg, nil
}

// StripeEnabled returns true if payment processing is configured.
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}
