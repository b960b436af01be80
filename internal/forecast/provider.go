// Package forecast implements hourly temperature forecast retrieval for a
// fixed geographic point.
//
// Two interchangeable providers sit behind the Provider interface: the
// National Weather Service API (primary) and Open-Meteo (secondary). The
// Chain tries them in order and fails only when every source fails — a
// single-shot fallback, not a retry loop.
package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"freezewatch/internal/metrics"
	"freezewatch/internal/types"
)

// Provider fetches an ordered, chronological hourly temperature series for
// the given point, covering at least the next seven days where the source
// offers it. Timestamps are location-local; temperatures are Fahrenheit.
type Provider interface {
	// Name returns a short identifier for logging and metrics.
	Name() string
	Fetch(ctx context.Context, lat, lon float64) ([]types.ForecastPoint, error)
}

// Chain is an ordered-attempt Provider: it tries each source sequentially,
// logs a warning when one fails, and returns the first success. Only when
// all sources fail does it return an error.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// NewChain creates a Chain over the given providers, attempted in order.
func NewChain(providers []Provider, logger *slog.Logger, recorder metrics.Recorder) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Chain{
		providers: providers,
		logger:    logger,
		recorder:  recorder,
	}
}

// Name identifies the chain in logs.
func (c *Chain) Name() string { return "chain" }

// Fetch attempts each provider once, in order. A provider failure is logged
// and counted as a fallback, then the next source is tried.
func (c *Chain) Fetch(ctx context.Context, lat, lon float64) ([]types.ForecastPoint, error) {
	var lastErr error

	for _, p := range c.providers {
		points, err := p.Fetch(ctx, lat, lon)
		if err != nil {
			c.logger.WarnContext(ctx, "forecast source failed",
				"source", p.Name(),
				"error", err,
			)
			c.recorder.RecordProviderFallback(ctx, p.Name())
			lastErr = err
			continue
		}
		c.logger.InfoContext(ctx, "forecast retrieved",
			"source", p.Name(),
			"points", len(points),
		)
		return points, nil
	}

	if lastErr != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamForecast,
			fmt.Sprintf("all forecast sources failed: %v", lastErr),
			lastErr,
		)
	}

	// No providers configured.
	return nil, types.NewAppError(
		types.ErrCodeUpstreamForecast,
		"no forecast sources configured",
		nil,
	)
}

// Compile-time assertion that Chain implements Provider.
var _ Provider = (*Chain)(nil)
