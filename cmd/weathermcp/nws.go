package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkemble/relay/internal/httpkit"
)

// nwsBase is the National Weather Service API root.
const nwsBase = "https://api.weather.gov"

// nwsClient is a minimal client for the NWS forecast and alert APIs.
type nwsClient struct {
	baseURL    string
	httpClient *http.Client
}

func newNWSClient(baseURL string) *nwsClient {
	if baseURL == "" {
		baseURL = nwsBase
	}
	return &nwsClient{
		baseURL:    baseURL,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
	}
}

// get fetches a NWS endpoint and decodes the GeoJSON body into out.
func (c *nwsClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 2048)
		return fmt.Errorf("NWS returned %d for %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// pointsResponse is the subset of /points/{lat},{lon} we need.
type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

// forecastResponse is the subset of a gridpoint forecast we need.
type forecastResponse struct {
	Properties struct {
		Periods []forecastPeriod `json:"periods"`
	} `json:"properties"`
}

type forecastPeriod struct {
	Name            string `json:"name"`
	Temperature     int    `json:"temperature"`
	TemperatureUnit string `json:"temperatureUnit"`
	WindSpeed       string `json:"windSpeed"`
	WindDirection   string `json:"windDirection"`
	ShortForecast   string `json:"shortForecast"`
}

// alertsResponse is the subset of /alerts/active we need.
type alertsResponse struct {
	Features []struct {
		Properties alertProperties `json:"properties"`
	} `json:"features"`
}

type alertProperties struct {
	Event       string `json:"event"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

// Forecast returns a short text forecast for a coordinate: the next
// few periods from the gridpoint the coordinate falls in.
func (c *nwsClient) Forecast(ctx context.Context, latitude, longitude float64) (string, error) {
	var points pointsResponse
	path := fmt.Sprintf("/points/%.4f,%.4f", latitude, longitude)
	if err := c.get(ctx, path, &points); err != nil {
		return "", err
	}
	if points.Properties.Forecast == "" {
		return "", fmt.Errorf("no forecast grid for %.4f,%.4f", latitude, longitude)
	}

	// The forecast URL is absolute; strip the base so get() can add it back.
	forecastPath := strings.TrimPrefix(points.Properties.Forecast, c.baseURL)

	var forecast forecastResponse
	if err := c.get(ctx, forecastPath, &forecast); err != nil {
		return "", err
	}

	periods := forecast.Properties.Periods
	if len(periods) == 0 {
		return "", fmt.Errorf("forecast for %.4f,%.4f has no periods", latitude, longitude)
	}
	if len(periods) > 3 {
		periods = periods[:3]
	}

	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, formatPeriod(p))
	}
	return strings.Join(parts, "\n---\n"), nil
}

// Alerts returns the active weather alerts for a two-letter US state code.
func (c *nwsClient) Alerts(ctx context.Context, state string) (string, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if len(state) != 2 {
		return "", fmt.Errorf("state must be a two-letter code, got %q", state)
	}

	var alerts alertsResponse
	if err := c.get(ctx, "/alerts/active/area/"+state, &alerts); err != nil {
		return "", err
	}

	if len(alerts.Features) == 0 {
		return fmt.Sprintf("No active alerts for %s.", state), nil
	}

	parts := make([]string, 0, len(alerts.Features))
	for _, f := range alerts.Features {
		parts = append(parts, formatAlert(f.Properties))
	}
	return strings.Join(parts, "\n---\n"), nil
}

func formatPeriod(p forecastPeriod) string {
	return fmt.Sprintf("%s:\nTemperature: %d°%s\nWind: %s %s\nForecast: %s",
		orUnknown(p.Name), p.Temperature, orUnknown(p.TemperatureUnit),
		orUnknown(p.WindSpeed), orUnknown(p.WindDirection),
		orUnknown(p.ShortForecast))
}

func formatAlert(p alertProperties) string {
	instruction := p.Instruction
	if instruction == "" {
		instruction = "No specific instructions provided"
	}
	return fmt.Sprintf("Event: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s",
		orUnknown(p.Event), orUnknown(p.AreaDesc), orUnknown(p.Severity),
		orUnknown(p.Description), instruction)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
