// Package airnow fetches current air-quality observations from the AirNow
// API.
package airnow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

const defaultBaseURL = "https://www.airnowapi.org/aq/observation/zipCode/current/"

// observationDistanceMiles widens the observation search around the ZIP.
const observationDistanceMiles = 25

// fallbackAQI is the moderate placeholder reported when the API is
// unavailable or unconfigured. A neutral-ish value keeps the environment
// score from swinging on outages.
const fallbackAQI = 55

// Client implements domain.AirQualitySource.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an AirNow client. An empty API key permanently degrades
// the adapter to its fallback path; aggregation still proceeds.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

// Fetch returns the current AQI observation for the ZIP, preferring PM2.5
// and ozone readings when several pollutants are reported.
func (c *Client) Fetch(ctx context.Context, zip string) (domain.AirQualityData, domain.Provenance) {
	if c.apiKey == "" {
		return fallback(), domain.ProvenanceFallback
	}

	observations, err := c.observations(ctx, zip)
	if err != nil {
		c.logger.Warn("airnow fetch failed", "zip", zip, "error", err)
		return fallback(), domain.ProvenanceFallback
	}
	if len(observations) == 0 {
		return fallback(), domain.ProvenanceFallback
	}

	preferred := observations[0]
	for _, obs := range observations {
		if obs.ParameterName == "PM2.5" || obs.ParameterName == "O3" {
			preferred = obs
			break
		}
	}

	return domain.AirQualityData{
		AQI:       preferred.AQI,
		Category:  preferred.Category.Name,
		Pollutant: preferred.ParameterName,
	}, domain.ProvenanceLive
}

func (c *Client) observations(ctx context.Context, zip string) ([]observation, error) {
	params := url.Values{
		"format":   {"application/json"},
		"zipCode":  {zip},
		"distance": {fmt.Sprint(observationDistanceMiles)},
		"API_KEY":  {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airnow request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airnow API error: status %d", resp.StatusCode)
	}

	var observations []observation
	if err := json.NewDecoder(resp.Body).Decode(&observations); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return observations, nil
}

func fallback() domain.AirQualityData {
	return domain.AirQualityData{
		AQI:       fallbackAQI,
		Category:  "Moderate",
		Pollutant: "Unknown",
	}
}

// AirNow API response types.

type observation struct {
	ParameterName string   `json:"ParameterName"`
	AQI           int      `json:"AQI"`
	Category      category `json:"Category"`
}

type category struct {
	Name string `json:"Name"`
}
