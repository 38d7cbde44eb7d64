// Package zippopotam resolves US ZIP codes to coordinates via the
// Zippopotam.us API.
package zippopotam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// Fallback coordinate used when a ZIP cannot be resolved. A real, stable
// point (downtown New York City) so downstream spatial queries still return
// plausible data instead of failing; a deliberate approximation, not an
// error state.
const (
	FallbackLat = 40.7128
	FallbackLon = -74.0060
)

// Client implements domain.GeoResolver using the Zippopotam.us API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Zippopotam geocoding client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.zippopotam.us/us",
		logger:  logger,
	}
}

// Resolve converts a ZIP code to (latitude, longitude). Lookup failures and
// invalid coordinates resolve to the fixed NYC fallback; Resolve never fails.
func (c *Client) Resolve(ctx context.Context, zip string) (float64, float64) {
	lat, lon, err := c.lookup(ctx, zip)
	if err != nil {
		c.logger.Warn("zip lookup failed, using fallback coordinate",
			"zip", zip,
			"error", err,
		)
		return FallbackLat, FallbackLon
	}
	return lat, lon
}

func (c *Client) lookup(ctx context.Context, zip string) (float64, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+zip, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("zippopotam request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("zippopotam API error: status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Places) == 0 {
		return 0, 0, fmt.Errorf("no places for zip %s", zip)
	}

	p := body.Places[0]
	lat, errLat := strconv.ParseFloat(p.Latitude, 64)
	lon, errLon := strconv.ParseFloat(p.Longitude, 64)
	if errLat != nil || errLon != nil || (lat == 0 && lon == 0) {
		return 0, 0, fmt.Errorf("invalid coordinates %q,%q", p.Latitude, p.Longitude)
	}
	return lat, lon, nil
}

// Zippopotam API response types. Coordinates arrive as strings.

type response struct {
	Places []place `json:"places"`
}

type place struct {
	PlaceName string `json:"place name"`
	State     string `json:"state"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

var _ domain.GeoResolver = (*Client)(nil)
