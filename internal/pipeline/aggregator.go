// Package pipeline orchestrates the cache-or-fetch aggregation of per-ZIP
// civic data and its scoring.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/civic-score-service/internal/domain"
	"github.com/couchcryptid/civic-score-service/internal/observability"
)

// Sources bundles the seven top-level source adapters.
type Sources struct {
	Census     domain.CensusSource
	Health     domain.HealthSource
	Crime      domain.CrimeSource
	Housing    domain.HousingSource
	Broadband  domain.BroadbandSource
	AirQuality domain.AirQualitySource
	POI        domain.POISource
}

// Aggregator assembles raw-data records: cache first, live adapters on a
// miss, best-effort persistence of the live result.
type Aggregator struct {
	store   domain.Store
	sources Sources
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewAggregator creates an Aggregator. The clock stamps cache writes and is
// injectable for tests.
func NewAggregator(store domain.Store, sources Sources, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Aggregator {
	return &Aggregator{
		store:   store,
		sources: sources,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// Collect returns the raw-data record for a ZIP and whether it came from the
// cache. It never fails for a validated ZIP: cache errors degrade to a live
// fetch, adapter failures degrade to fallback sub-records, and persistence
// failures are logged and swallowed so the live result still reaches the
// caller.
func (a *Aggregator) Collect(ctx context.Context, zip string) (domain.RawDataRecord, bool) {
	if cached, err := a.store.Get(ctx, zip); err != nil {
		a.logger.Warn("cache lookup failed, fetching live", "zip", zip, "error", err)
	} else if cached != nil {
		a.logger.Debug("cache hit", "zip", zip)
		a.metrics.Aggregations.WithLabelValues("hit").Inc()
		return *cached, true
	}

	a.logger.Info("cache miss, fetching live data", "zip", zip)
	rec := a.fetchLive(ctx, zip)
	a.metrics.Aggregations.WithLabelValues("live").Inc()

	if err := a.store.Put(ctx, zip, rec, a.clock.Now().UTC()); err != nil {
		a.logger.Warn("cache persist failed, returning live result anyway", "zip", zip, "error", err)
		a.metrics.CacheWrites.WithLabelValues("error").Inc()
	} else {
		a.metrics.CacheWrites.WithLabelValues("success").Inc()
	}

	return rec, false
}

// fetchLive invokes all seven adapters and assembles the combined record.
// Adapters are independent at this level; the crime and health adapters
// resolve their census/POI inputs internally.
func (a *Aggregator) fetchLive(ctx context.Context, zip string) domain.RawDataRecord {
	var rec domain.RawDataRecord

	rec.Census = fetchSource(a, ctx, zip, "census", a.sources.Census.Fetch)
	rec.Health = fetchSource(a, ctx, zip, "health", a.sources.Health.Fetch)
	rec.Crime = fetchSource(a, ctx, zip, "crime", a.sources.Crime.Fetch)
	rec.OSM = fetchSource(a, ctx, zip, "osm", a.sources.POI.Fetch)
	rec.Housing = fetchSource(a, ctx, zip, "housing", a.sources.Housing.Fetch)
	rec.Broadband = fetchSource(a, ctx, zip, "broadband", a.sources.Broadband.Fetch)
	rec.AirQuality = fetchSource(a, ctx, zip, "air_quality", a.sources.AirQuality.Fetch)

	return rec
}

// fetchSource runs one adapter fetch with timing, logging, and provenance
// accounting.
func fetchSource[T any](a *Aggregator, ctx context.Context, zip, name string, fetch func(context.Context, string) (T, domain.Provenance)) T {
	start := time.Now()
	data, prov := fetch(ctx, zip)

	a.metrics.SourceFetches.WithLabelValues(name, string(prov)).Inc()
	a.metrics.SourceFetchSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if prov == domain.ProvenanceFallback {
		a.logger.Warn("source degraded to fallback", "zip", zip, "source", name)
	}
	return data
}
