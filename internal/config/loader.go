// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Apply derived defaults (recipient falls back to sender).
//  4. Validate the struct using go-playground/validator, plus a timezone
//     check that struct tags cannot express.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"freezewatch/internal/types"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load loads and validates the freezewatch configuration from the
// environment. A .env file in the working directory is honored but never
// overrides variables already set in the environment.
func Load() (*Config, error) {
	// Non-fatal if no .env file exists.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	// The original deployment sends alerts back to the sender address when
	// no explicit recipient is configured.
	if cfg.Email.Recipient == "" {
		cfg.Email.Recipient = cfg.Email.Sender
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if _, err := time.LoadLocation(cfg.Location.Timezone); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: fmt.Sprintf("unknown timezone %q", cfg.Location.Timezone),
			Err:     types.NewAppError(types.ErrCodeValidationInvalidTimezone, "timezone not found in zone database", err),
		}
	}

	return &cfg, nil
}
