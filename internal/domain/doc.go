// Package domain models the civic-score data pipeline: the per-ZIP raw-data
// record, the source adapter contracts, the normalization and scoring math,
// and the crime proxy model.
//
// # Data Sources
//
// Each sub-record of [RawDataRecord] originates from one adapter:
//
//	census      US Census ACS 5-year estimates per ZCTA (income B19013,
//	            education B15003, population B01003, household size S1101)
//	health      HRSA open data (HPSA designations, primary-care facilities)
//	crime       proxy model over the FBI state violent-crime snapshot plus
//	            local census and POI signals, see [CrimeIndex]
//	housing     ACS median gross rent B25064 and rent burden B25070
//	broadband   ACS broadband subscriptions B28002 with a density-based
//	            fiber/cable split estimate
//	air_quality AirNow current observations
//	osm         OpenStreetMap Overpass counts within 5 km of the ZIP centroid
//
// A ZIP code is approximated by its ZCTA (ZIP Code Tabulation Area), the
// census geography that stands in for postal ZIP boundaries.
//
// # Degradation Model
//
// Adapters are total: any upstream failure is absorbed into a documented
// fallback sub-record and tagged with a [Provenance] value, so the aggregator
// and the scoring engine can never fail for a syntactically valid ZIP. Under
// total upstream outage every metric degrades toward its neutral or fallback
// value rather than erroring.
//
// # Scoring
//
// [ComputeScores] turns a record into eight 0-100 metric scores plus a
// weighted overall score. Raw values pass through [Normalize] against the
// fixed [NormalizationBounds] table; lower-is-better fields (crime index,
// AQI, rent burden) are inverted. The scoring engine is pure: no I/O, no
// hidden state, identical input gives identical output.
package domain
