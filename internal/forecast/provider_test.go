package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freezewatch/internal/types"
)

// stubProvider is a canned Provider for chain tests.
type stubProvider struct {
	name   string
	points []types.ForecastPoint
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, lat, lon float64) ([]types.ForecastPoint, error) {
	s.calls++
	return s.points, s.err
}

// recordingFallbacks counts fallback metrics per source.
type recordingFallbacks struct {
	sources []string
}

func (r *recordingFallbacks) RecordAlert(ctx context.Context, kind types.AlertKind) {}

func (r *recordingFallbacks) RecordNotifyFailure(ctx context.Context) {}

func (r *recordingFallbacks) RecordProviderFallback(ctx context.Context, source string) {
	r.sources = append(r.sources, source)
}

func (r *recordingFallbacks) RecordRunDuration(ctx context.Context, d time.Duration) {}

func somePoints() []types.ForecastPoint {
	return []types.ForecastPoint{
		{Timestamp: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), TemperatureF: 40},
	}
}

func TestChainFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("first success short-circuits", func(t *testing.T) {
		primary := &stubProvider{name: "nws", points: somePoints()}
		secondary := &stubProvider{name: "open-meteo"}
		chain := NewChain([]Provider{primary, secondary}, nil, nil)

		points, err := chain.Fetch(ctx, 45.0, -122.0)

		require.NoError(t, err)
		assert.Len(t, points, 1)
		assert.Equal(t, 1, primary.calls)
		assert.Zero(t, secondary.calls)
	})

	t.Run("falls back when the primary fails", func(t *testing.T) {
		primary := &stubProvider{name: "nws", err: errors.New("status 503")}
		secondary := &stubProvider{name: "open-meteo", points: somePoints()}
		rec := &recordingFallbacks{}
		chain := NewChain([]Provider{primary, secondary}, nil, rec)

		points, err := chain.Fetch(ctx, 45.0, -122.0)

		require.NoError(t, err)
		assert.Len(t, points, 1)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, secondary.calls)
		assert.Equal(t, []string{"nws"}, rec.sources)
	})

	t.Run("all sources failing returns an upstream error", func(t *testing.T) {
		primary := &stubProvider{name: "nws", err: errors.New("status 503")}
		secondary := &stubProvider{name: "open-meteo", err: errors.New("timeout")}
		rec := &recordingFallbacks{}
		chain := NewChain([]Provider{primary, secondary}, nil, rec)

		_, err := chain.Fetch(ctx, 45.0, -122.0)

		require.Error(t, err)
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeUpstreamForecast, appErr.Code)
		assert.Equal(t, []string{"nws", "open-meteo"}, rec.sources)
	})

	t.Run("no sources configured", func(t *testing.T) {
		chain := NewChain(nil, nil, nil)

		_, err := chain.Fetch(ctx, 45.0, -122.0)

		require.Error(t, err)
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeUpstreamForecast, appErr.Code)
	})
}
