// Package hrsa assembles the health sub-record from HRSA open data (shortage
// areas, primary-care facilities) and a POI-based hospital proxy.
package hrsa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// HRSA open-data endpoints. No API key required.
const (
	defaultHPSAURL        = "https://data.hrsa.gov/resource/gt7t-n7q6.json"
	defaultPrimaryCareURL = "https://data.hrsa.gov/resource/44px-5di8.json"
)

// primaryCareKeywords identify primary-care facilities by name.
var primaryCareKeywords = []string{"clinic", "health", "medical", "primary"}

// Client implements domain.HealthSource.
type Client struct {
	httpClient     *http.Client
	hpsaURL        string
	primaryCareURL string
	poi            domain.POISource
	logger         *slog.Logger
	mockMode       bool
}

// NewClient creates an HRSA health client. Hospital counts are proxied
// through the POI source. When mockMode is set, Fetch returns fixed
// illustrative values without any network calls.
func NewClient(timeout time.Duration, poi domain.POISource, logger *slog.Logger, mockMode bool) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		hpsaURL:        defaultHPSAURL,
		primaryCareURL: defaultPrimaryCareURL,
		poi:            poi,
		logger:         logger,
		mockMode:       mockMode,
	}
}

func (c *Client) Fetch(ctx context.Context, zip string) (domain.HealthData, domain.Provenance) {
	if c.mockMode {
		return domain.HealthData{
			PrimaryCareCenters: 5,
			Hospitals:          1,
			IsHPSA:             false,
		}, domain.ProvenanceMock
	}

	failed := 0

	primaryCare, err := c.primaryCareCount(ctx, zip)
	if err != nil {
		c.logger.Warn("hrsa primary care fetch failed", "zip", zip, "error", err)
		failed++
	}

	isHPSA, err := c.hpsaStatus(ctx, zip)
	if err != nil {
		c.logger.Warn("hrsa hpsa fetch failed", "zip", zip, "error", err)
		failed++
	}

	// Hospital counts ride the POI clinic query; the dedicated hospital
	// category is not collected yet and the clinic count stands in for it.
	poiData, _ := c.poi.Fetch(ctx, zip)

	data := domain.HealthData{
		PrimaryCareCenters: primaryCare,
		Hospitals:          poiData.Clinics,
		IsHPSA:             isHPSA,
	}

	switch failed {
	case 0:
		return data, domain.ProvenanceLive
	case 2:
		return data, domain.ProvenanceFallback
	default:
		return data, domain.ProvenancePartial
	}
}

// primaryCareCount counts facilities whose name matches a primary-care
// keyword.
func (c *Client) primaryCareCount(ctx context.Context, zip string) (int, error) {
	var rows []struct {
		FacilityName string `json:"facility_name"`
	}
	if err := c.getJSON(ctx, c.primaryCareURL, zip, &rows); err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		name := strings.ToLower(row.FacilityName)
		for _, kw := range primaryCareKeywords {
			if strings.Contains(name, kw) {
				count++
				break
			}
		}
	}
	return count, nil
}

// hpsaStatus reports whether any shortage-area record for the ZIP carries a
// positive HPSA score.
func (c *Client) hpsaStatus(ctx context.Context, zip string) (bool, error) {
	var rows []struct {
		HPSAScore any `json:"hpsa_score"`
	}
	if err := c.getJSON(ctx, c.hpsaURL, zip, &rows); err != nil {
		return false, err
	}

	for _, row := range rows {
		if scoreValue(row.HPSAScore) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, zip string, out any) error {
	u := endpoint + "?" + url.Values{"zip": {zip}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hrsa request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hrsa API error: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// scoreValue coerces the hpsa_score field, which arrives as either a JSON
// number or a string depending on the dataset revision.
func scoreValue(v any) float64 {
	switch s := v.(type) {
	case float64:
		return s
	case string:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
