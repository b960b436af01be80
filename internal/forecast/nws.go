package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"freezewatch/internal/types"
)

// NWSProvider fetches hourly forecasts from the National Weather Service API
// (api.weather.gov). The API is a two-step flow: a points lookup resolves the
// grid endpoint serving the coordinates, then the hourly forecast is fetched
// from the URL the lookup returns.
//
// NWS requires a descriptive User-Agent on every request.
type NWSProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// NWSProviderConfig holds the settings for creating an NWSProvider.
type NWSProviderConfig struct {
	// BaseURL is the API root, e.g. "https://api.weather.gov".
	BaseURL string
	// UserAgent identifies this client to the NWS API.
	UserAgent string
	Logger    *slog.Logger
}

// NewNWSProvider creates an NWSProvider with the given HTTP client and config.
func NewNWSProvider(client *http.Client, cfg NWSProviderConfig) *NWSProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NWSProvider{
		client:    client,
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Name returns the source identifier for logging and metrics.
func (p *NWSProvider) Name() string { return "nws" }

// nwsPointsResponse is the subset of the /points response we consume.
type nwsPointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

// nwsHourlyResponse is the subset of the hourly forecast response we consume.
// Period start times are RFC3339 in the grid's local zone; temperatures are
// Fahrenheit for CONUS grid points.
type nwsHourlyResponse struct {
	Properties struct {
		Periods []struct {
			StartTime   string  `json:"startTime"`
			Temperature float64 `json:"temperature"`
		} `json:"periods"`
	} `json:"properties"`
}

// Fetch resolves the grid endpoint for the coordinates and retrieves the
// hourly forecast from it.
func (p *NWSProvider) Fetch(ctx context.Context, lat, lon float64) ([]types.ForecastPoint, error) {
	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, lat, lon)

	var points nwsPointsResponse
	if err := p.getJSON(ctx, pointURL, &points); err != nil {
		return nil, fmt.Errorf("nws points lookup: %w", err)
	}
	if points.Properties.ForecastHourly == "" {
		return nil, fmt.Errorf("nws points lookup: no hourly forecast URL for %.4f,%.4f", lat, lon)
	}

	var hourly nwsHourlyResponse
	if err := p.getJSON(ctx, points.Properties.ForecastHourly, &hourly); err != nil {
		return nil, fmt.Errorf("nws hourly forecast: %w", err)
	}

	periods := hourly.Properties.Periods
	if len(periods) == 0 {
		return nil, fmt.Errorf("nws hourly forecast: empty period list")
	}

	out := make([]types.ForecastPoint, 0, len(periods))
	for _, period := range periods {
		ts, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			// A single bad timestamp breaks chronology guarantees; treat the
			// payload as malformed so the chain falls back.
			return nil, fmt.Errorf("nws hourly forecast: bad startTime %q: %w", period.StartTime, err)
		}
		out = append(out, types.ForecastPoint{
			Timestamp:    ts,
			TemperatureF: period.Temperature,
		})
	}

	return out, nil
}

// getJSON performs a GET with the NWS User-Agent and decodes the JSON body.
func (p *NWSProvider) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", url, err)
	}
	return nil
}

// Compile-time assertion that NWSProvider implements Provider.
var _ Provider = (*NWSProvider)(nil)
