// Package config defines the configuration for the freezewatch service.
// Configuration is loaded once at process start and is immutable thereafter.
// It follows 12-Factor principles: all values come from the environment, with
// an optional .env file for local development.
//
// Resolution priority: OS Environment (highest) -> Dotenv File -> defaults.
package config

import (
	"time"

	"freezewatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for credentials so they never leak through logs or JSON dumps.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HistoryPath is the alert history file, expected to be committed to
	// version control between scheduled runs.
	HistoryPath string `envconfig:"ALERT_HISTORY_FILE" default:"alert_history.json"`

	Location LocationConfig
	Schedule ScheduleConfig
	Forecast ForecastConfig
	Email    EmailConfig
	Metrics  MetricsConfig
}

// LocationConfig identifies the single fixed point being watched.
type LocationConfig struct {
	Name      string  `envconfig:"LOCATION_NAME" default:"Scotts Mills, Oregon"`
	Latitude  float64 `envconfig:"LATITUDE" default:"45.0411" validate:"min=-90,max=90"`
	Longitude float64 `envconfig:"LONGITUDE" default:"-122.6700" validate:"min=-180,max=180"`
	// Timezone is the IANA zone used for all local-time decisions: schedule
	// gating, date comparisons in the evaluator, and message timestamps.
	Timezone string `envconfig:"LOCATION_TIMEZONE" default:"America/Los_Angeles" validate:"required"`
}

// ScheduleConfig gates which local hours a scheduled invocation actually runs.
// The external scheduler may fire more often; invocations outside these hours
// exit without doing anything unless forced.
type ScheduleConfig struct {
	Hours []int `envconfig:"SCHEDULED_HOURS" default:"6,18" validate:"min=1,dive,min=0,max=23"`
}

// ForecastConfig holds the upstream forecast source endpoints.
type ForecastConfig struct {
	NWSBaseURL       string        `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov" validate:"url"`
	OpenMeteoBaseURL string        `envconfig:"OPENMETEO_BASE_URL" default:"https://api.open-meteo.com" validate:"url"`
	UserAgent        string        `envconfig:"FORECAST_USER_AGENT" default:"FreezeWatch/1.0"`
	Timeout          time.Duration `envconfig:"FORECAST_TIMEOUT" default:"30s"`
}

// EmailConfig holds notifier provider selection and credentials.
//
// Recipient is an opaque destination string: a plain email address or a
// carrier's email-to-SMS gateway address. It is never parsed, only passed
// through to the provider. When empty it defaults to Sender.
type EmailConfig struct {
	Provider   string `envconfig:"EMAIL_PROVIDER" default:"smtp" validate:"oneof=smtp ses resend"`
	Sender     string `envconfig:"SENDER_EMAIL" validate:"omitempty,email"`
	SenderName string `envconfig:"SENDER_NAME" default:"Freeze Alert"`
	Recipient  string `envconfig:"RECIPIENT_EMAIL"`

	// SMTP provider settings (default path, Gmail-compatible).
	SMTPHost     string       `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort     int          `envconfig:"SMTP_PORT" default:"587" validate:"min=1,max=65535"`
	SMTPPassword SecretString `envconfig:"SENDER_PASSWORD"`

	// SES provider settings. Region comes from the AWS SDK default chain.
	SESConfigSet string `envconfig:"SES_CONFIG_SET"`

	// Resend provider settings.
	ResendAPIKey SecretString `envconfig:"RESEND_API_KEY"`
}

// MetricsConfig holds CloudWatch metric emission settings. An empty
// namespace disables metrics entirely.
type MetricsConfig struct {
	Namespace string `envconfig:"METRIC_NAMESPACE"`
	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates a failure parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)
