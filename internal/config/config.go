// Package config loads application configuration from environment variables,
// optionally preloaded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env      string // APP_ENV (dev, test, prod)
	Port     string // APP_PORT
	LogLevel string // LOG_LEVEL

	StoreDriver string // STORE_DRIVER: mysql or memory
	DBUser      string
	DBPass      string // may be empty
	DBHost      string
	DBPort      string
	DBName      string
	DBMigrate   bool // run embedded migrations at boot

	JWTSecret    string
	AccessTTLMin int // access token lifetime in minutes
	BcryptCost   int

	SeedDemoUsers bool
	RabbitMQURL   string // empty disables workflow events

	RateLimit RateLimitConfig
}

// Load reads the environment, after loading .env when present, and reports
// every missing or malformed required key at once.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		Env:           must("APP_ENV", &errs),
		Port:          must("APP_PORT", &errs),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		StoreDriver:   strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		DBPass:        os.Getenv("DB_PASS"),
		DBMigrate:     envBool("DB_MIGRATE", true),
		JWTSecret:     must("JWT_SECRET", &errs),
		AccessTTLMin:  positiveInt("ACCESS_TOKEN_TTL_MIN", 60, &errs),
		BcryptCost:    positiveInt("BCRYPT_COST", 10, &errs),
		SeedDemoUsers: envBool("SEED_DEMO_USERS", false),
		RabbitMQURL:   envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		RateLimit:     LoadRateLimitConfig(),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER", &errs)
		cfg.DBHost = must("DB_HOST", &errs)
		cfg.DBPort = must("DB_PORT", &errs)
		cfg.DBName = must("DB_NAME", &errs)
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMySQL, DriverMemory, cfg.StoreDriver))
	}
	return cfg, errors.Join(errs...)
}

// IsDev reports whether APP_ENV names a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// must retrieves the value of a required environment variable and records
// an error when it is unset or empty.
func must(key string, errs *[]error) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		*errs = append(*errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// positiveInt is like envInt but rejects malformed or non-positive values.
func positiveInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid positive int for %s: %q", key, v))
		return def
	}
	return n
}

// AuditorConfig configures cmd/auditor.
type AuditorConfig struct {
	Env         string
	LogLevel    string
	RabbitMQURL string
	AuditLog    string // AUDIT_LOG_PATH, one JSON line per workflow event
}

// LoadAuditor reads the auditor settings. RABBITMQ_URL (or AMQP_URL) is
// required.
func LoadAuditor() (AuditorConfig, error) {
	_ = godotenv.Load()

	cfg := AuditorConfig{
		Env:         envStr("APP_ENV", "prod"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		RabbitMQURL: envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		AuditLog:    envStr("AUDIT_LOG_PATH", "logs/workflow.log"),
	}
	if cfg.RabbitMQURL == "" {
		return cfg, errors.New("missing required env var: RABBITMQ_URL")
	}
	return cfg, nil
}
