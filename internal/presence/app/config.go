package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	StoreDriver  string // Optional: memory, sqlite or postgres (default: sqlite)
	DatabaseFile string // Optional: sqlite file (default: ./presence.db)
	DatabaseURL  string // Required for postgres: connection string

	SessionSecret string        // Optional: HS256 key for session tokens, generated when empty
	SessionTTL    time.Duration // Optional: session token lifetime (default: 24h)
	ResetTTL      time.Duration // Optional: password reset token lifetime (default: 1h)
	PepperFile    string        // Optional: path to file containing pepper for password hashing (default: ./pepper)

	TeamCodePrefix string // Optional: prefix of generated team codes (default: TEAM-)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the environment, seeded from a .env file when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		StoreDriver:          getEnvOrDefault("PRESENCE_STORE_DRIVER", DriverSQLite),
		DatabaseFile:         getEnvOrDefault("PRESENCE_DATABASE_FILE", "presence.db"),
		DatabaseURL:          os.Getenv("PRESENCE_DATABASE_URL"),
		SessionSecret:        os.Getenv("PRESENCE_SESSION_SECRET"),
		SessionTTL:           getEnvDurationOrDefault("PRESENCE_SESSION_TTL", 24*time.Hour),
		ResetTTL:             getEnvDurationOrDefault("PRESENCE_RESET_TTL", time.Hour),
		PepperFile:           getEnvOrDefault("PRESENCE_PEPPER_FILE", "pepper"),
		TeamCodePrefix:       getEnvOrDefault("PRESENCE_TEAM_CODE_PREFIX", "TEAM-"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
