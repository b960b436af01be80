// Package main is the CLI entrypoint for freezewatch. It is designed to be
// invoked by an external scheduler (cron, CI schedule): each invocation runs
// one complete fetch → evaluate → notify → persist cycle and exits.
//
// Exit codes: 0 on normal completion, even when individual notifications
// failed; 1 when no forecast could be obtained from any source or when
// startup (config, wiring) fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"freezewatch/internal/config"
	"freezewatch/internal/forecast"
	"freezewatch/internal/history"
	"freezewatch/internal/metrics"
	"freezewatch/internal/notify"
	"freezewatch/internal/runner"
)

func main() {
	force := flag.Bool("force", false, "run even outside the scheduled alert window")
	testMode := flag.String("test", "", "send simulated alerts: frost1, frost2, extended_freeze, or all")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	run, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	opts := runner.Options{
		Force:    *force || os.Getenv("FORCE_RUN") == "1",
		TestMode: *testMode,
	}
	if err := run.Run(ctx, opts); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// buildRunner wires the provider chain, history store, notifier, and metrics
// recorder from configuration.
func buildRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runner.Runner, error) {
	loc, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Location.Timezone, err)
	}

	httpClient := &http.Client{Timeout: cfg.Forecast.Timeout}

	// AWS config is only loaded when something needs it.
	var awsCfg aws.Config
	if cfg.Metrics.Namespace != "" || cfg.Email.Provider == "ses" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Metrics.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("loading AWS SDK config: %w", err)
		}
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

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
