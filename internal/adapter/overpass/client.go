// Package overpass counts OpenStreetMap points of interest around a ZIP
// centroid using the Overpass API, with mirror failover and an in-process
// count cache.
package overpass

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

	"github.com/couchcryptid/civic-score-service/internal/domain"
	"github.com/couchcryptid/civic-score-service/internal/observability"
)

// DefaultMirrors are the public Overpass endpoints, tried in order. A
// transient failure on one mirror moves on to the next after a short
// cooldown to avoid hammering a struggling endpoint.
var DefaultMirrors = []string{
	"https://overpass-api.de/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
}

// searchRadiusMeters bounds every POI query around the ZIP centroid.
const searchRadiusMeters = 5000

const mirrorCooldown = 400 * time.Millisecond

// category maps one POIData field to its OSM tag.
type category struct {
	label  string
	tagKey string
	tagVal string
}

// categories in fetch order.
var categories = []category{
	{"parks", "leisure", "park"},
	{"grocery_stores", "shop", "supermarket"},
	{"clinics", "amenity", "clinic"},
	{"transit_stops", "public_transport", "platform"},
	{"police_stations", "amenity", "police"},
}

// Client implements domain.POISource against the Overpass API.
type Client struct {
	httpClient *http.Client
	mirrors    []string
	cooldown   time.Duration
	resolver   domain.GeoResolver
	cache      *countCache
	metrics    *observability.Metrics
	logger     *slog.Logger
	mockMode   bool
}

// NewClient creates an Overpass POI client. cacheSize bounds the in-process
// (coordinate, category) → count cache. When mockMode is set, Fetch
// short-circuits to fixed illustrative counts without any network calls.
func NewClient(timeout time.Duration, cacheSize int, resolver domain.GeoResolver, metrics *observability.Metrics, logger *slog.Logger, mockMode bool) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		mirrors:  DefaultMirrors,
		cooldown: mirrorCooldown,
		resolver: resolver,
		cache:    newCountCache(cacheSize),
		metrics:  metrics,
		logger:   logger,
		mockMode: mockMode,
	}
}

// Fetch counts the five POI categories around the resolved ZIP coordinate.
// Categories whose mirrors all fail report zero; the provenance tag reflects
// how much of the record is live.
func (c *Client) Fetch(ctx context.Context, zip string) (domain.POIData, domain.Provenance) {
	if c.mockMode {
		return domain.POIData{
			Parks:          5,
			GroceryStores:  12,
			Clinics:        4,
			TransitStops:   24,
			PoliceStations: 1,
		}, domain.ProvenanceMock
	}

	lat, lon := c.resolver.Resolve(ctx, zip)

	counts := make(map[string]int, len(categories))
	failed := 0
	for _, cat := range categories {
		count, err := c.cachedCount(ctx, lat, lon, cat)
		if err != nil {
			c.logger.Warn("all overpass mirrors failed",
				"zip", zip,
				"category", cat.label,
				"error", err,
			)
			failed++
		}
		counts[cat.label] = count
	}

	data := domain.POIData{
		Parks:          counts["parks"],
		GroceryStores:  counts["grocery_stores"],
		Clinics:        counts["clinics"],
		TransitStops:   counts["transit_stops"],
		PoliceStations: counts["police_stations"],
	}

	switch {
	case failed == 0:
		return data, domain.ProvenanceLive
	case failed == len(categories):
		return data, domain.ProvenanceFallback
	default:
		return data, domain.ProvenancePartial
	}
}

// cachedCount consults the in-process cache before querying the mirrors.
// Only successful counts are cached; a failure stays retryable.
func (c *Client) cachedCount(ctx context.Context, lat, lon float64, cat category) (int, error) {
	key := fmt.Sprintf("%.4f|%.4f|%s=%s", lat, lon, cat.tagKey, cat.tagVal)
	if count, ok := c.cache.get(key); ok {
		c.metrics.POICacheLookups.WithLabelValues("hit").Inc()
		return count, nil
	}
	c.metrics.POICacheLookups.WithLabelValues("miss").Inc()

	count, err := c.count(ctx, lat, lon, cat)
	if err != nil {
		return 0, err
	}
	c.cache.put(key, count)
	return count, nil
}

// count tries each mirror in order and returns the first usable count.
func (c *Client) count(ctx context.Context, lat, lon float64, cat category) (int, error) {
	query := buildQuery(lat, lon, cat)

	var lastErr error
	for i, mirror := range c.mirrors {
		count, err := c.queryMirror(ctx, mirror, query)
		if err == nil {
			return count, nil
		}
		lastErr = err
		if i < len(c.mirrors)-1 {
			if !sleepWithContext(ctx, c.cooldown) {
				return 0, ctx.Err()
			}
		}
	}
	return 0, fmt.Errorf("all mirrors failed: %w", lastErr)
}

func (c *Client) queryMirror(ctx context.Context, mirror, query string) (int, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mirror, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Elements) == 0 {
		return 0, fmt.Errorf("empty count response")
	}

	tags := body.Elements[0].Tags
	return atoiOrZero(tags.Nodes) + atoiOrZero(tags.Ways) + atoiOrZero(tags.Relations), nil
}

// buildQuery renders an "out count" query over nodes, ways, and relations
// carrying the category tag within the search radius.
func buildQuery(lat, lon float64, cat category) string {
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node[%[1]q=%[2]q](around:%[3]d,%[4]f,%[5]f);
  way[%[1]q=%[2]q](around:%[3]d,%[4]f,%[5]f);
  relation[%[1]q=%[2]q](around:%[3]d,%[4]f,%[5]f);
);
out count;`, cat.tagKey, cat.tagVal, searchRadiusMeters, lat, lon)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Overpass "out count" response types. Counts arrive as strings.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Tags countTags `json:"tags"`
}

type countTags struct {
	Nodes     string `json:"nodes"`
	Ways      string `json:"ways"`
	Relations string `json:"relations"`
}
