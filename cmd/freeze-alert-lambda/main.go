// Package main is the AWS Lambda entrypoint for freezewatch. An EventBridge
// rule invokes it on the alert schedule; the event payload can force a run
// outside the scheduled window or request a delivery test.
//
// Dependency wiring happens once at cold start; each invocation delegates to
// the same Runner the CLI uses.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"freezewatch/internal/config"
	"freezewatch/internal/forecast"
	"freezewatch/internal/history"
	"freezewatch/internal/metrics"
	"freezewatch/internal/notify"
	"freezewatch/internal/runner"
)

// Input is the invocation event from EventBridge or a manual invoke.
type Input struct {
	// Force bypasses the scheduled-hours gate.
	Force bool `json:"force"`
	// TestMode sends simulated alerts: frost1, frost2, extended_freeze, all.
	TestMode string `json:"test_mode"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("freezewatch Lambda initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	run, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	logger.Info("freezewatch Lambda initialized",
		"location", cfg.Location.Name,
		"email_provider", cfg.Email.Provider,
		"scheduled_hours", cfg.Schedule.Hours,
	)

	lambda.Start(newHandler(run, logger))
}

// newHandler wraps the Runner for Lambda invocation.
func newHandler(run *runner.Runner, logger *slog.Logger) func(ctx context.Context, input Input) (string, error) {
	return func(ctx context.Context, input Input) (string, error) {
		logger.InfoContext(ctx, "freezewatch handler invoked",
			"force", input.Force,
			"test_mode", input.TestMode,
		)

		err := run.Run(ctx, runner.Options{
			Force:    input.Force,
			TestMode: input.TestMode,
		})
		if err != nil {
			logger.ErrorContext(ctx, "run failed", "error", err)
			return "", fmt.Errorf("freeze alert run failed: %w", err)
		}

		return "run complete", nil
	}
}

// buildRunner wires the provider chain, history store, notifier, and metrics
// recorder from configuration. Unlike the CLI, the AWS SDK config is always
// loaded: SES via IAM-role credentials is the usual provider here.
func buildRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runner.Runner, error) {
	loc, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Location.Timezone, err)
	}

	httpClient := &http.Client{Timeout: cfg.Forecast.Timeout}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Metrics.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS SDK config: %w", err)
	}

	recorder := metrics.Recorder(metrics.Nop{})
	if cfg.Metrics.Namespace != "" {
		recorder = metrics.NewCloudWatchRecorder(cloudwatch.NewFromConfig(awsCfg), cfg.Metrics.Namespace, logger)
	}

	chain := forecast.NewChain([]forecast.Provider{
		forecast.NewNWSProvider(httpClient, forecast.NWSProviderConfig{
			BaseURL:   cfg.Forecast.NWSBaseURL,
			UserAgent: cfg.Forecast.UserAgent,
			Logger:    logger,
		}),
		forecast.NewOpenMeteoProvider(httpClient, forecast.OpenMeteoProviderConfig{
			BaseURL:  cfg.Forecast.OpenMeteoBaseURL,
			Timezone: cfg.Location.Timezone,
			Location: loc,
			Logger:   logger,
		}),
	}, logger, recorder)

	var provider notify.EmailProvider
	switch cfg.Email.Provider {
	case "ses":
		provider = notify.NewSESProvider(awsCfg, notify.SESProviderConfig{
			ConfigSetName: cfg.Email.SESConfigSet,
			Logger:        logger,
		})
	case "resend":
		provider = notify.NewResendProvider(cfg.Email.ResendAPIKey, logger)
	default:
		provider = notify.NewSMTPProvider(notify.SMTPProviderConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.Sender,
			Password: cfg.Email.SMTPPassword,
			Logger:   logger,
		})
	}

	notifier := notify.NewNotifier(notify.NotifierConfig{
		Provider:     provider,
		Sender:       cfg.Email.Sender,
		SenderName:   cfg.Email.SenderName,
		Recipient:    cfg.Email.Recipient,
		LocationName: cfg.Location.Name,
		Location:     loc,
		Logger:       logger,
	})

	store := history.NewFileStore(cfg.HistoryPath, logger)

	return runner.NewRunner(runner.RunnerConfig{
		Fetcher:        chain,
		Store:          store,
		Notifier:       notifier,
		Logger:         logger,
		Recorder:       recorder,
		Latitude:       cfg.Location.Latitude,
		Longitude:      cfg.Location.Longitude,
		Location:       loc,
		LocationName:   cfg.Location.Name,
		ScheduledHours: cfg.Schedule.Hours,
	}), nil
}
