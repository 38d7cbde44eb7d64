package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/civic-score-service/internal/domain"
	"github.com/couchcryptid/civic-score-service/internal/observability"
)

type memStore struct {
	records map[string]domain.RawDataRecord
	puts    int
	lastPut time.Time
	getErr  error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]domain.RawDataRecord{}}
}

func (s *memStore) Get(_ context.Context, zip string) (*domain.RawDataRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[zip]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) Put(_ context.Context, zip string, rec domain.RawDataRecord, updatedAt time.Time) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.records[zip] = rec
	s.puts++
	s.lastPut = updatedAt
	return nil
}

type stubSources struct {
	census     int
	health     int
	crime      int
	housing    int
	broadband  int
	airQuality int
	poi        int
}

func (s *stubSources) bundle() Sources {
	return Sources{
		Census: sourceFunc[domain.CensusData](func() (domain.CensusData, int) {
			s.census++
			income := 85000.0
			return domain.CensusData{MedianIncome: &income, BachelorsRate: 40}, s.census
		}),
		Health: sourceFunc[domain.HealthData](func() (domain.HealthData, int) {
			s.health++
			return domain.HealthData{PrimaryCareCenters: 4, Hospitals: 4}, s.health
		}),
		Crime: sourceFunc[domain.CrimeData](func() (domain.CrimeData, int) {
			s.crime++
			return domain.CrimeData{PerThousand: 31.2}, s.crime
		}),
		Housing: sourceFunc[domain.HousingData](func() (domain.HousingData, int) {
			s.housing++
			rent := 1600.0
			return domain.HousingData{MedianRent: &rent}, s.housing
		}),
		Broadband: sourceFunc[domain.BroadbandData](func() (domain.BroadbandData, int) {
			s.broadband++
			return domain.BroadbandData{BroadbandPct: 88}, s.broadband
		}),
		AirQuality: sourceFunc[domain.AirQualityData](func() (domain.AirQualityData, int) {
			s.airQuality++
			return domain.AirQualityData{AQI: 42, Category: "Good", Pollutant: "PM2.5"}, s.airQuality
		}),
		POI: sourceFunc[domain.POIData](func() (domain.POIData, int) {
			s.poi++
			return domain.POIData{Parks: 5, GroceryStores: 12, Clinics: 4, TransitStops: 24, PoliceStations: 1}, s.poi
		}),
	}
}

func (s *stubSources) totalCalls() int {
	return s.census + s.health + s.crime + s.housing + s.broadband + s.airQuality + s.poi
}

// sourceFunc adapts a closure to the per-type Fetch signature.
type sourceFunc[T any] func() (T, int)

func (f sourceFunc[T]) Fetch(context.Context, string) (T, domain.Provenance) {
	data, _ := f()
	return data, domain.ProvenanceLive
}

func testAggregator(store domain.Store, sources Sources, clock clockwork.Clock) *Aggregator {
	return NewAggregator(
		store,
		sources,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
		clock,
	)
}

func TestCollect_CacheMissFetchesAndPersists(t *testing.T) {
	store := newMemStore()
	sources := &stubSources{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := testAggregator(store, sources.bundle(), clockwork.NewFakeClockAt(now))

	rec, cached := agg.Collect(context.Background(), "07306")

	assert.False(t, cached)
	assert.Equal(t, 7, sources.totalCalls())
	assert.Equal(t, 1, store.puts)
	assert.Equal(t, now, store.lastPut)
	require.NotNil(t, rec.Census.MedianIncome)
	assert.Equal(t, 85000.0, *rec.Census.MedianIncome)
	assert.Equal(t, 42, rec.AirQuality.AQI)
	assert.Equal(t, 24, rec.OSM.TransitStops)
}

func TestCollect_CacheHitShortCircuitsSources(t *testing.T) {
	store := newMemStore()
	store.records["07306"] = domain.RawDataRecord{
		AirQuality: domain.AirQualityData{AQI: 99, Category: "Moderate", Pollutant: "O3"},
	}
	sources := &stubSources{}
	agg := testAggregator(store, sources.bundle(), clockwork.NewFakeClock())

	rec, cached := agg.Collect(context.Background(), "07306")

	assert.True(t, cached)
	assert.Zero(t, sources.totalCalls())
	assert.Zero(t, store.puts)
	assert.Equal(t, 99, rec.AirQuality.AQI)
}

func TestCollect_CacheReadFailureDegradesToLive(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	sources := &stubSources{}
	agg := testAggregator(store, sources.bundle(), clockwork.NewFakeClock())

	_, cached := agg.Collect(context.Background(), "07306")

	assert.False(t, cached)
	assert.Equal(t, 7, sources.totalCalls())
}

func TestCollect_PersistFailureStillReturnsLiveRecord(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("read-only transaction")
	sources := &stubSources{}
	agg := testAggregator(store, sources.bundle(), clockwork.NewFakeClock())

	rec, cached := agg.Collect(context.Background(), "07306")

	assert.False(t, cached)
	assert.Equal(t, 88.0, rec.Broadband.BroadbandPct)
}
