package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AdminEmail string // Optional: account granted the admin role at registration

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./chat.db)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	ResetCodeTTL         time.Duration // Validity window for password-reset codes (default: 15m)
	CookieTTL            time.Duration // Session cookie lifetime (default: 7 days)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	SMTPAddr     string // Optional: host:port of the SMTP relay; empty disables delivery
	SMTPFrom     string // Sender address for reset-code mail
	SMTPUsername string // Optional: enables SMTP AUTH together with SMTPPassword
	SMTPPassword string
}

func LoadConfig() Config {
	return Config{
		AdminEmail:           os.Getenv("CHAT_ADMIN_EMAIL"),
		DatabaseFile:         getEnvOrDefault("CHAT_DATABASE_FILE", "chat.db"),
		PepperFile:           getEnvOrDefault("CHAT_PEPPER_FILE", "pepper"),
		ResetCodeTTL:         getEnvDurationOrDefault("CHAT_OTP_TTL", 15*time.Minute),
		CookieTTL:            getEnvDurationOrDefault("COOKIE_TTL", 7*24*time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		SMTPAddr:             os.Getenv("SMTP_ADDR"),
		SMTPFrom:             getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
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

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
