// Package runner orchestrates a single freezewatch invocation: fetch the
// forecast, load the alert history, evaluate, notify, persist. It is invoked
// by an external scheduler (cron or an EventBridge rule); there is no
// internal scheduling, concurrency, or overlap between runs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"freezewatch/internal/alert"
	"freezewatch/internal/metrics"
	"freezewatch/internal/types"
)

// ForecastFetcher retrieves the hourly forecast for a point. In production
// this is the provider chain.
type ForecastFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) ([]types.ForecastPoint, error)
}

// HistoryStore loads and saves the persisted alert history.
type HistoryStore interface {
	Load(ctx context.Context) (types.AlertHistory, error)
	Save(ctx context.Context, h types.AlertHistory) error
}

// AlertSender delivers alert events and status summaries.
type AlertSender interface {
	SendAlert(ctx context.Context, ev types.AlertEvent, refID string) error
	SendStatus(ctx context.Context, sum alert.Summary, refID string) error
}

// Options are the per-invocation flags.
type Options struct {
	// Force bypasses the scheduled-hours gate.
	Force bool
	// TestMode, when non-empty, sends simulated alerts built from live
	// forecast data instead of running the evaluator. The history file is
	// never touched. Valid modes: frost1, frost2, extended_freeze, all.
	TestMode string
}

// RunnerConfig holds the dependencies for a Runner.
type RunnerConfig struct {
	Fetcher        ForecastFetcher
	Store          HistoryStore
	Notifier       AlertSender
	Clock          types.Clock
	Logger         *slog.Logger
	Recorder       metrics.Recorder
	Latitude       float64
	Longitude      float64
	Location       *time.Location
	LocationName   string
	ScheduledHours []int
}

// Runner executes one complete check-and-alert cycle per Run call.
type Runner struct {
	fetcher        ForecastFetcher
	store          HistoryStore
	notifier       AlertSender
	clock          types.Clock
	logger         *slog.Logger
	recorder       metrics.Recorder
	lat            float64
	lon            float64
	location       *time.Location
	locationName   string
	scheduledHours []int
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Runner{
		fetcher:        cfg.Fetcher,
		store:          cfg.Store,
		notifier:       cfg.Notifier,
		clock:          clock,
		logger:         logger,
		recorder:       recorder,
		lat:            cfg.Latitude,
		lon:            cfg.Longitude,
		location:       loc,
		locationName:   cfg.LocationName,
		scheduledHours: cfg.ScheduledHours,
	}
}

// Run executes one invocation. It returns an error only when no forecast
// could be obtained from any source (the caller exits non-zero) or when the
// test mode is invalid; individual notification failures are logged and the
// run still completes, including the history save.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	started := r.clock.Now()
	defer func() {
		r.recorder.RecordRunDuration(ctx, r.clock.Now().Sub(started))
	}()

	if opts.TestMode != "" {
		return r.runTest(ctx, logger, opts.TestMode, runID)
	}

	now := r.clock.Now().In(r.location)
	if !opts.Force && !r.inScheduledWindow(now) {
		logger.InfoContext(ctx, "outside scheduled alert window, skipping",
			"local_time", now.Format("01/02 03:04PM MST"),
			"scheduled_hours", r.scheduledHours,
		)
		return nil
	}

	logger.InfoContext(ctx, "checking forecast",
		"location", r.locationName,
		"lat", r.lat,
		"lon", r.lon,
	)

	points, err := r.fetcher.Fetch(ctx, r.lat, r.lon)
	if err != nil {
		// Total provider failure: no history mutation, no notifications.
		return err
	}

	history, err := r.store.Load(ctx)
	if err != nil {
		// Unreadable history is recovered as empty; a duplicate alert beats
		// going silent.
		logger.WarnContext(ctx, "history unavailable, continuing with empty history", "error", err)
		history = types.AlertHistory{}
	}

	updated, events := alert.Evaluate(points, history, now)

	failures := 0
	for _, ev := range events {
		r.recorder.RecordAlert(ctx, ev.Kind)
		if err := r.notifier.SendAlert(ctx, ev, runID); err != nil {
			failures++
			r.recorder.RecordNotifyFailure(ctx)
			logger.ErrorContext(ctx, "failed to send alert",
				"kind", string(ev.Kind),
				"error", err,
			)
			continue
		}
		logger.InfoContext(ctx, "alert sent", "kind", string(ev.Kind))
	}

	// A scheduled run with nothing to report still sends a status message so
	// silence is distinguishable from breakage.
	if len(events) == 0 {
		if err := r.notifier.SendStatus(ctx, alert.Summarize(points), runID); err != nil {
			failures++
			r.recorder.RecordNotifyFailure(ctx)
			logger.ErrorContext(ctx, "failed to send status", "error", err)
		}
	}

	// Send failures do not roll back evaluator decisions: the condition truly
	// occurred, so the history mutation is committed regardless.
	if err := r.store.Save(ctx, updated); err != nil {
		logger.ErrorContext(ctx, "failed to save history, next run may send duplicate alerts", "error", err)
	}

	logger.InfoContext(ctx, "run complete",
		"forecast_points", len(points),
		"events", len(events),
		"notify_failures", failures,
	)
	return nil
}

func (r *Runner) inScheduledWindow(now time.Time) bool {
	for _, h := range r.scheduledHours {
		if now.Hour() == h {
			return true
		}
	}
	return false
}

// Test modes and their simulated conditions.
const (
	TestModeFirstFrost     = "frost1"
	TestModeSecondFrost    = "frost2"
	TestModeExtendedFreeze = "extended_freeze"
	TestModeAll            = "all"
)

// runTest sends simulated alerts seeded with live forecast temperatures so
// the delivery path can be verified end to end without waiting for a freeze.
// The alert history is never read or written.
func (r *Runner) runTest(ctx context.Context, logger *slog.Logger, mode, runID string) error {
	switch mode {
	case TestModeFirstFrost, TestModeSecondFrost, TestModeExtendedFreeze, TestModeAll:
	default:
		return types.NewAppError(
			types.ErrCodeValidationInvalidTestMode,
			fmt.Sprintf("invalid test mode %q (valid: frost1, frost2, extended_freeze, all)", mode),
			nil,
		)
	}

	logger.InfoContext(ctx, "running in test mode", "mode", mode)

	// Best effort: seed the simulated messages with real temperatures, but a
	// provider outage must not block a delivery test.
	current, tonightLow := 45.0, 38.0
	points, err := r.fetcher.Fetch(ctx, r.lat, r.lon)
	if err != nil {
		logger.WarnContext(ctx, "forecast unavailable for test, using default temperatures", "error", err)
	} else if len(points) > 0 {
		current = points[0].TemperatureF
		tonightLow = current
		for i, pt := range points {
			if i >= 24 {
				break
			}
			if pt.TemperatureF < tonightLow {
				tonightLow = pt.TemperatureF
			}
		}
	}

	now := r.clock.Now().In(r.location)
	failures := 0
	for _, ev := range simulatedEvents(mode, now, current, tonightLow) {
		if err := r.notifier.SendAlert(ctx, ev, runID); err != nil {
			failures++
			logger.ErrorContext(ctx, "failed to send test alert",
				"kind", string(ev.Kind),
				"error", err,
			)
			continue
		}
		logger.InfoContext(ctx, "test alert sent", "kind", string(ev.Kind))
	}

	logger.InfoContext(ctx, "test run complete", "notify_failures", failures)
	return nil
}

// simulatedEvents builds the canned events for a test mode.
func simulatedEvents(mode string, now time.Time, current, tonightLow float64) []types.AlertEvent {
	var events []types.AlertEvent

	add := func(kind types.AlertKind, title string, simTemp float64, hours int) {
		events = append(events, types.AlertEvent{
			Kind: kind,
			Message: fmt.Sprintf("TEST ALERT - %s\nCurrent: %.0fF\nTonight low: %.0fF\nSimulated frost: %.0fF\nDuration: %dhrs",
				title, current, tonightLow, simTemp, hours),
			Run: types.FreezeRun{Start: now, Hours: hours, MinTempF: simTemp},
		})
	}

	if mode == TestModeFirstFrost || mode == TestModeAll {
		add(types.AlertFirstFrost, "First frost", 28, 3)
	}
	if mode == TestModeSecondFrost || mode == TestModeAll {
		add(types.AlertSecondFrost, "Second frost", 30, 2)
	}
	if mode == TestModeExtendedFreeze || mode == TestModeAll {
		add(types.AlertExtendedFreeze, "Extended freeze", 25, 6)
	}

	return events
}
