package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Sync tuning constants. These are deliberately not configurable per
// deployment: every device of a business must agree on them.
const (
	// ProtectionWindow is how long inbound realtime updates are ignored
	// after a successful local write, so a device's own echo cannot bounce
	// the UI back to a stale status.
	ProtectionWindow = 3 * time.Second

	// RecentPullWindow bounds the orchestrator pull: terminal orders older
	// than this are not fetched from the remote store.
	RecentPullWindow = 24 * time.Hour

	// ActiveDisplayCutoff is how long finished orders stay visible on the
	// board before they drop off.
	ActiveDisplayCutoff = 12 * time.Hour

	// PollInterval is the fallback pull cadence used when realtime events
	// are missed (reconnects, subscription gaps).
	PollInterval = 30 * time.Second

	// PullPageSize caps one orchestrator pull. A full page means the pull
	// may have been truncated, so absence from it proves nothing about a
	// cached order.
	PullPageSize = 200
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string // remote authoritative store (postgres)
	LocalCachePath     string // embedded cache file (sqlite)
	RedisAddr          string // realtime change feed
	BusinessID         string
	Port               string
	GoEnv              string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// On managed deployments environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		LocalCachePath:     getEnv("LOCAL_CACHE_PATH", "pos_cache.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		BusinessID:         getEnv("BUSINESS_ID", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BusinessID == "" {
		return fmt.Errorf("BUSINESS_ID is required")
	}
	return nil
}

// GetConfig returns the loaded configuration instance
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the configuration instance (primarily for testing)
func SetConfig(c *Config) {
	appConfig = c
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
