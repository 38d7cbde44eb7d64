// Package census wraps the US Census ACS 5-year API for ZCTA-level lookups.
// One shared Client handles vintage fallback and retries; thin adapters on
// top of it implement the demographics, housing, and broadband sources.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// acsVintages are the ACS releases tried in order, newest first. A ZCTA that
// is suppressed or missing in one release is often present in an older one.
var acsVintages = []string{"2022", "2021", "2020"}

const (
	defaultBaseURL = "https://api.census.gov/data"
	retryAttempts  = 3
	retryDelay     = 600 * time.Millisecond
)

// Client is a low-level ACS query client shared by the census-backed
// adapters.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates an ACS client. The API key is optional; requests without
// one are subject to stricter rate limits but otherwise identical.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    defaultBaseURL,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// queryVintages runs an acs5 query against each vintage in order and returns
// the first successful response.
func (c *Client) queryVintages(ctx context.Context, vars, zip string) ([][]any, error) {
	var lastErr error
	for _, year := range acsVintages {
		rows, err := c.query(ctx, year, vars, zip, retryAttempts)
		if err == nil {
			return rows, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all ACS vintages failed: %w", lastErr)
}

// query performs one acs5 request with a bounded retry loop. Responses are
// the Census API's row-oriented JSON: a header row followed by data rows.
func (c *Client) query(ctx context.Context, year, vars, zip string, attempts int) ([][]any, error) {
	params := url.Values{
		"get": {vars},
		"for": {"zip code tabulation area:" + zip},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := fmt.Sprintf("%s/%s/acs/acs5?%s", c.baseURL, year, params.Encode())

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if !sleepWithContext(ctx, c.retryDelay) {
				return nil, ctx.Err()
			}
		}
		rows, err := c.doRequest(ctx, u)
		if err == nil {
			return rows, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([][]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("census request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("census API error: status %d: %s", resp.StatusCode, body)
	}

	var rows [][]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("census response has no data rows")
	}
	return rows, nil
}

// State resolves the state name of a ZCTA via the NAME variable. Vintages
// that render the name without a state component yield an error; the caller
// falls back to the national crime baseline.
func (c *Client) State(ctx context.Context, zip string) (string, error) {
	rows, err := c.query(ctx, "2022", "NAME", zip, 1)
	if err != nil {
		return "", err
	}
	name, ok := cellString(rows[1], 0)
	if !ok || !strings.Contains(name, ",") {
		return "", fmt.Errorf("no state component in ZCTA name %q", name)
	}
	parts := strings.Split(name, ",")
	return strings.TrimSpace(parts[len(parts)-1]), nil
}

// cellString extracts a cell as a string. The Census API emits cells as JSON
// strings or nulls; numbers appear occasionally in older vintages.
func cellString(row []any, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	switch v := row[idx].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// cellFloat extracts a cell as a float64, rejecting nulls and empty strings.
func cellFloat(row []any, idx int) (float64, bool) {
	s, ok := cellString(row, idx)
	if !ok || s == "" || s == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
