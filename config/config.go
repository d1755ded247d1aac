package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultOpenAIURL      = "https://api.openai.com/v1/chat/completions"
	DefaultBackendTimeout = 5 * time.Second
)

// Identity modes
const (
	AuthModeIntrospect = "introspect"
	AuthModeJWT        = "jwt"
)

// Ledger backends
const (
	LedgerREST     = "rest"
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
	LedgerRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerHost string
	ServerPort string

	// Hosted backend (identity + REST ledger)
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	AuthMode          string
	BackendTimeout    time.Duration

	// Completion provider
	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string

	// Ledger
	LedgerBackend       string
	LedgerRetentionDays int

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Rejected completion archive
	ArchiveBucket string
	AWSRegion     string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// ConfigError reports a secret the generation function cannot run without.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	if env == Development || env == Test {
		// .env is optional
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		Environment:       env,
		ServerHost:        lookupDefault("SERVER_HOST", "0.0.0.0"),
		ServerPort:        lookupDefault("SERVER_PORT", "8080"),
		SupabaseURL:       strings.TrimRight(lookup("SUPABASE_URL"), "/"),
		SupabaseAnonKey:   lookup("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: lookup("SUPABASE_JWT_SECRET"),
		AuthMode:          strings.ToLower(lookupDefault("AUTH_MODE", AuthModeIntrospect)),
		OpenAIKey:         lookup("OPENAI_API_KEY"),
		OpenAIModel:       lookupDefault("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIURL:         lookupDefault("OPENAI_API_URL", DefaultOpenAIURL),
		LedgerBackend:     strings.ToLower(lookupDefault("LEDGER_BACKEND", LedgerREST)),
		DBHost:            lookupDefault("DB_HOST", "localhost"),
		DBPort:            lookupDefault("DB_PORT", "5432"),
		DBUser:            lookup("DB_USER"),
		DBPassword:        lookup("DB_PASSWORD"),
		DBName:            lookupDefault("DB_NAME", "macrochef"),
		DBSSLMode:         lookupDefault("DB_SSL_MODE", "disable"),
		SQLitePath:        lookupDefault("SQLITE_PATH", "macrochef.db"),
		RedisURL:          lookup("REDIS_URL"),
		RedisHost:         lookupDefault("REDIS_HOST", "localhost"),
		RedisPort:         lookupDefault("REDIS_PORT", "6379"),
		RedisPassword:     lookup("REDIS_PASSWORD"),
		ArchiveBucket:     lookup("ARCHIVE_BUCKET"),
		AWSRegion:         lookup("AWS_REGION"),
		LogLevel:          lookupDefault("LOG_LEVEL", "info"),
		LogFormat:         lookup("LOG_FORMAT"),
		LogFile:           lookup("LOG_FILE"),
	}

	var err error
	if cfg.BackendTimeout, err = lookupDuration("BACKEND_TIMEOUT", DefaultBackendTimeout); err != nil {
		return nil, err
	}
	if cfg.LedgerRetentionDays, err = lookupInt("LEDGER_RETENTION_DAYS", 0); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = lookupInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// GenerationSecrets reports the first secret missing for the generation function.
func (c *Config) GenerationSecrets() error {
	if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
		return &ConfigError{Message: "Missing SUPABASE_URL or SUPABASE_ANON_KEY secret"}
	}
	if c.OpenAIKey == "" {
		return &ConfigError{Message: "Missing OPENAI_API_KEY secret"}
	}
	return nil
}

// PostgresDSN builds the connection string for the postgres ledger.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// lookup reads an environment variable, falling back to a Docker secret of the same name
func lookup(key string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return readSecret(strings.ToLower(key))
}

func lookupDefault(key, fallback string) string {
	if value := lookup(key); value != "" {
		return value
	}
	return fallback
}

func lookupInt(key string, fallback int) (int, error) {
	raw := lookup(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

func lookupDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := lookup(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
