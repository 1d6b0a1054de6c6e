package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	Token       string // Discord bot token
	RedisURL    string
	DatabaseURL string
	SQLitePath  string

	// Naming conventions for managed channels
	CategoryName   string
	TriggerName    string
	RoomPrefix     string
	ModChannelName string

	// Timeouts
	LockTTL         time.Duration // Lease on a provisioning lock held in Redis
	LockWait        time.Duration // How long a provisioning handler waits for its lock
	PlatformTimeout time.Duration // Budget for one event's platform calls
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// It panics when DISCORD_TOKEN is missing and, in production, when REDIS_URL is missing.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Token:       os.Getenv("DISCORD_TOKEN"),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),

		CategoryName:   getEnv("CATEGORY_NAME", "MakeRoom"),
		TriggerName:    getEnv("TRIGGER_CHANNEL_NAME", "+ Create Room"),
		RoomPrefix:     getEnv("ROOM_NAME_PREFIX", "🏠 "),
		ModChannelName: getEnv("MOD_CHANNEL_NAME", "moderator-only"),

		LockTTL:         getDuration("LOCK_TTL", 10*time.Second),
		LockWait:        getDuration("LOCK_WAIT", 5*time.Second),
		PlatformTimeout: getDuration("PLATFORM_TIMEOUT", 10*time.Second),
	}

	if cfg.Token == "" {
		panic("DISCORD_TOKEN is required")
	}

	// Several bot processes only stay consistent through shared Redis state
	if cfg.Env == "production" && cfg.RedisURL == "" {
		panic("REDIS_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
