package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"freezewatch/internal/types"
)

// openMeteoDays is the forecast lookahead requested from Open-Meteo.
const openMeteoDays = 7

// openMeteoTimeLayout is the timestamp format Open-Meteo returns when a
// timezone parameter is supplied: local wall-clock time with no zone suffix.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider fetches hourly forecasts from the Open-Meteo API. It is
// the secondary source: no API key required, Fahrenheit on request, and
// timestamps returned in the location's own timezone.
type OpenMeteoProvider struct {
	client   *http.Client
	baseURL  string
	timezone string
	location *time.Location
	logger   *slog.Logger
}

// OpenMeteoProviderConfig holds the settings for creating an OpenMeteoProvider.
type OpenMeteoProviderConfig struct {
	// BaseURL is the API root, e.g. "https://api.open-meteo.com".
	BaseURL string
	// Timezone is the IANA zone name passed to the API and used to interpret
	// the zone-less timestamps it returns.
	Timezone string
	// Location must match Timezone; it is resolved once by the caller.
	Location *time.Location
	Logger   *slog.Logger
}

// NewOpenMeteoProvider creates an OpenMeteoProvider with the given HTTP
// client and config.
func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoProviderConfig) *OpenMeteoProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &OpenMeteoProvider{
		client:   client,
		baseURL:  cfg.BaseURL,
		timezone: cfg.Timezone,
		location: loc,
		logger:   logger,
	}
}

// Name returns the source identifier for logging and metrics.
func (p *OpenMeteoProvider) Name() string { return "open-meteo" }

// openMeteoResponse is the subset of the /v1/forecast response we consume.
type openMeteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// Fetch retrieves the hourly 2-meter temperature series for the next seven
// days, in Fahrenheit, localized to the configured timezone.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, lat, lon float64) ([]types.ForecastPoint, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("hourly", "temperature_2m")
	values.Set("temperature_unit", "fahrenheit")
	values.Set("timezone", p.timezone)
	values.Set("forecast_days", fmt.Sprintf("%d", openMeteoDays))

	u := fmt.Sprintf("%s/v1/forecast?%s", p.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo forecast: unexpected status %d", resp.StatusCode)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("open-meteo forecast: decoding response: %w", err)
	}

	times := payload.Hourly.Time
	temps := payload.Hourly.Temperature2m
	if len(times) == 0 || len(times) != len(temps) {
		return nil, fmt.Errorf("open-meteo forecast: mismatched hourly arrays (%d times, %d temps)", len(times), len(temps))
	}

	limit := len(times)
	if limit > openMeteoDays*24 {
		limit = openMeteoDays * 24
	}

	out := make([]types.ForecastPoint, 0, limit)
	for i := 0; i < limit; i++ {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, times[i], p.location)
		if err != nil {
			return nil, fmt.Errorf("open-meteo forecast: bad time %q: %w", times[i], err)
		}
		out = append(out, types.ForecastPoint{
			Timestamp:    ts,
			TemperatureF: temps[i],
		})
	}

	return out, nil
}

// Compile-time assertion that OpenMeteoProvider implements Provider.
var _ Provider = (*OpenMeteoProvider)(nil)
