package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration, loaded from environment variables.
type Config struct {
	Port        int
	Environment string
	AppURL      string // public base URL, used for CORS and email deep links
	CORSOrigins []string
	JWTSecret   string
	Database    DatabaseConfig
	SMTP        SMTPConfig
	Log         LogConfig

	CheckInterval          int // seconds between scheduler cycles, 0 disables the internal timer
	HeartbeatRetentionDays int
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// SMTPConfig holds outbound mail configuration. Host empty means no
// outbound mail; email notifications then degrade to logged no-ops.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether outbound mail can be sent.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.From != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
	Dir   string // empty logs to stdout only
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "production"),
		AppURL:      strings.TrimRight(getEnv("APP_URL", ""), "/"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dir:   getEnv("LOG_DIR", ""),
		},
		CheckInterval:          getEnvInt("CHECK_INTERVAL", 60),
		HeartbeatRetentionDays: getEnvInt("HEARTBEAT_RETENTION_DAYS", 90),
	}

	cfg.CORSOrigins = corsOrigins(cfg.AppURL, cfg.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
	} else if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.CheckInterval < 0 {
		return fmt.Errorf("CHECK_INTERVAL must not be negative")
	}
	if c.HeartbeatRetentionDays < 1 {
		return fmt.Errorf("HEARTBEAT_RETENTION_DAYS must be at least 1")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}

func buildPostgresDSN() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(getEnv("POSTGRES_USER", "pulseboard"), getEnv("POSTGRES_PASSWORD", "secret")),
		Host:   fmt.Sprintf("%s:%s", getEnv("POSTGRES_HOST", "localhost"), getEnv("POSTGRES_PORT", "5432")),
		Path:   getEnv("POSTGRES_DB", "pulseboard"),
	}
	q := u.Query()
	q.Set("sslmode", getEnv("POSTGRES_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func corsOrigins(appURL, env string) []string {
	if appURL != "" {
		return []string{appURL}
	}
	if env == "development" {
		return []string{"http://localhost:3000", "http://localhost:8080"}
	}
	return []string{"http://localhost:8080"}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
