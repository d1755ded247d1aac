package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks settings that would leave the server unable to start.
// Missing generation secrets are not reported here: the generation endpoint
// answers 500 for them on every request instead.
func ValidateConfig(cfg *Config) error {
	var errs []error

	switch cfg.AuthMode {
	case AuthModeIntrospect:
	case AuthModeJWT:
		if cfg.SupabaseJWTSecret == "" {
			errs = append(errs, ValidationError{Field: "SUPABASE_JWT_SECRET", Message: "required when AUTH_MODE=jwt"})
		}
	default:
		errs = append(errs, ValidationError{Field: "AUTH_MODE", Message: fmt.Sprintf("unknown mode %q", cfg.AuthMode)})
	}

	switch cfg.LedgerBackend {
	case LedgerREST, LedgerSQLite, LedgerRedis:
	case LedgerPostgres:
		if cfg.DBUser == "" {
			errs = append(errs, ValidationError{Field: "DB_USER", Message: "required for the postgres ledger"})
		}
	default:
		errs = append(errs, ValidationError{Field: "LEDGER_BACKEND", Message: fmt.Sprintf("unknown backend %q", cfg.LedgerBackend)})
	}

	if cfg.BackendTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "BACKEND_TIMEOUT", Message: "must be positive"})
	}
	if cfg.LedgerRetentionDays < 0 {
		errs = append(errs, ValidationError{Field: "LEDGER_RETENTION_DAYS", Message: "must not be negative"})
	}

	return errors.Join(errs...)
}

// Warnings lists optional settings that are missing, for logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if err := c.GenerationSecrets(); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.ArchiveBucket != "" && c.AWSRegion == "" {
		warnings = append(warnings, "ARCHIVE_BUCKET set without AWS_REGION; relying on the shared AWS config")
	}
	return warnings
}
