package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/npd/pkg/npdsdk"
)

type Config struct {
	BaseURL      string        // Optional: service API root (default: npdsdk.DefaultBaseURL)
	Login        string        // Optional: taxpayer INN for the password login
	Password     string        // Optional: prompted for when empty
	DatabaseFile string        // Optional: path to SQLite database file (default: ./npd.db)
	SessionKey   string        // Required: passphrase sealing stored tokens
	HTTPTimeout  time.Duration // Optional: per-request timeout (default: 30s)
	ExpiryMargin time.Duration // Optional: minimum remaining token lifetime (default: 60s)
	Timezone     string        // Optional: IANA zone for operation times (default: local)
	UserAgent    string        // Optional: browser user agent presented to the service
	AppVersion   string        // Optional: device app version (default: 1.0.0)
	Env          string        // Environment (dev, staging, prod) (default: dev)
	LogLevel     string        // Log level (debug, info, warn, error) (default: info)
	LogFormat    string        // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		BaseURL:      getEnvOrDefault("NPD_BASE_URL", npdsdk.DefaultBaseURL),
		Login:        os.Getenv("NPD_LOGIN"),
		Password:     os.Getenv("NPD_PASSWORD"),
		DatabaseFile: getEnvOrDefault("NPD_DATABASE_FILE", "npd.db"),
		SessionKey:   os.Getenv("NPD_SESSION_KEY"),
		HTTPTimeout:  getEnvDurationOrDefault("NPD_HTTP_TIMEOUT", 30*time.Second),
		ExpiryMargin: getEnvDurationOrDefault("NPD_EXPIRY_MARGIN", npdsdk.DefaultExpiryMargin),
		Timezone:     os.Getenv("NPD_TIMEZONE"),
		UserAgent:    getEnvOrDefault("NPD_USER_AGENT", npdsdk.DefaultUserAgent),
		AppVersion:   getEnvOrDefault("NPD_APP_VERSION", npdsdk.DefaultAppVersion),
		Env:          getEnvOrDefault("ENV", "dev"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
