package domain

import (
	"context"
	"time"
)

// Provenance records how an adapter obtained its sub-record. Adapters never
// surface errors; instead every fetch is tagged so callers and metrics can
// tell a live value from a degraded one.
type Provenance string

const (
	// ProvenanceLive means every field came from the upstream provider.
	ProvenanceLive Provenance = "live"
	// ProvenancePartial means some fields fell back to defaults.
	ProvenancePartial Provenance = "partial"
	// ProvenanceFallback means the provider was unreachable or unusable and
	// the documented fallback values were substituted.
	ProvenanceFallback Provenance = "fallback"
	// ProvenanceMock means mock mode short-circuited the live call.
	ProvenanceMock Provenance = "mock"
)

// CensusData holds ACS demographic figures for one ZCTA.
type CensusData struct {
	MedianIncome  *float64 `json:"median_income"`
	BachelorsRate float64  `json:"bachelors_rate"` // percent, 0-100
	ResidentBase  *int     `json:"resident_base"`
}

// HealthData holds HRSA facility counts and the shortage-area flag.
type HealthData struct {
	PrimaryCareCenters int  `json:"primary_care_centers"`
	Hospitals          int  `json:"hospitals"`
	IsHPSA             bool `json:"is_hpsa"`
}

// CrimeData holds the crime proxy index.
//
// PerThousand is NOT a literal crimes-per-1k rate: it is a 0-100 risk index
// (higher = more risk) built from the state violent-crime baseline and local
// socio-economic signals. The field name is kept for cache compatibility.
// The scoring engine inverts it once; do not invert it here.
type CrimeData struct {
	PerThousand float64 `json:"crime_per_1k"`
}

// HousingData holds median gross rent and the rent-burden ratio.
type HousingData struct {
	MedianRent   *float64 `json:"median_rent"`
	RentToIncome *float64 `json:"rent_to_income"` // ratio 0-1, nil when unknown
}

// BroadbandData holds broadband subscription coverage and the estimated
// fiber/cable split.
type BroadbandData struct {
	BroadbandPct float64 `json:"broadband_pct"` // percent, 0-100
	FiberPct     float64 `json:"fiber_pct"`
	CablePct     float64 `json:"cable_pct"`
}

// AirQualityData holds the current AQI observation.
type AirQualityData struct {
	AQI       int    `json:"aqi"`
	Category  string `json:"category"`
	Pollutant string `json:"pollutant"`
}

// POIData counts points of interest within the search radius around the
// ZIP centroid.
type POIData struct {
	Parks          int `json:"parks"`
	GroceryStores  int `json:"grocery_stores"`
	Clinics        int `json:"clinics"`
	TransitStops   int `json:"transit_stops"`
	PoliceStations int `json:"police_stations"`
}

// RawDataRecord is the aggregated per-ZIP payload, keyed by the 5-digit ZIP
// code and persisted as-is in the cache store. Every sub-record is always
// present: adapters substitute documented fallback values on total failure,
// so consumers only ever branch on field-level nils.
type RawDataRecord struct {
	Census     CensusData     `json:"census"`
	Health     HealthData     `json:"health"`
	Crime      CrimeData      `json:"crime"`
	OSM        POIData        `json:"osm"`
	Housing    HousingData    `json:"housing"`
	Broadband  BroadbandData  `json:"broadband"`
	AirQuality AirQualityData `json:"air_quality"`
}

// Source adapter contracts. Fetch never returns an error: upstream failures
// are absorbed into fallback values and reported via the Provenance tag.

type CensusSource interface {
	Fetch(ctx context.Context, zip string) (CensusData, Provenance)
}

type HealthSource interface {
	Fetch(ctx context.Context, zip string) (HealthData, Provenance)
}

type CrimeSource interface {
	Fetch(ctx context.Context, zip string) (CrimeData, Provenance)
}

type HousingSource interface {
	Fetch(ctx context.Context, zip string) (HousingData, Provenance)
}

type BroadbandSource interface {
	Fetch(ctx context.Context, zip string) (BroadbandData, Provenance)
}

type AirQualitySource interface {
	Fetch(ctx context.Context, zip string) (AirQualityData, Provenance)
}

type POISource interface {
	Fetch(ctx context.Context, zip string) (POIData, Provenance)
}

// GeoResolver converts a ZIP code to a coordinate. Implementations never
// fail: on lookup error they return a fixed, documented fallback coordinate.
type GeoResolver interface {
	Resolve(ctx context.Context, zip string) (lat, lon float64)
}

// Store persists raw-data records keyed by ZIP code.
type Store interface {
	// Get returns the cached record, or nil when the ZIP is not cached.
	Get(ctx context.Context, zip string) (*RawDataRecord, error)

	// Put upserts the record. Callers treat failure as non-fatal.
	Put(ctx context.Context, zip string, rec RawDataRecord, updatedAt time.Time) error
}
