package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urbanRecord() RawDataRecord {
	income := 85000.0
	rentBurden := 0.325
	return RawDataRecord{
		Census: CensusData{MedianIncome: &income, BachelorsRate: 40},
		Health: HealthData{PrimaryCareCenters: 5, Hospitals: 1},
		Crime:  CrimeData{PerThousand: 31.2},
		OSM: POIData{
			Parks:          5,
			GroceryStores:  12,
			Clinics:        4,
			TransitStops:   24,
			PoliceStations: 1,
		},
		Housing:    HousingData{RentToIncome: &rentBurden},
		Broadband:  BroadbandData{BroadbandPct: 88, FiberPct: 44, CablePct: 30.8},
		AirQuality: AirQualityData{AQI: 50, Category: "Good", Pollutant: "PM2.5"},
	}
}

func TestComputeScores_UrbanRecord(t *testing.T) {
	scores := ComputeScores(urbanRecord(), DefaultWeights())

	assert.Equal(t, 79.2, scores[MetricSafety])
	assert.Equal(t, 62.5, scores[MetricHealth])
	assert.Equal(t, 57.1, scores[MetricEducation])
	assert.Equal(t, 53.6, scores[MetricEconomic])
	assert.Equal(t, 55.0, scores[MetricHousing])
	assert.Equal(t, 80.0, scores[MetricDigitalAccess])
	assert.Equal(t, 75.0, scores[MetricEnvironment])
	assert.Equal(t, 39.5, scores[MetricAccessibility])
	assert.Equal(t, 65.0, scores[OverallKey])
}

func TestComputeScores_Deterministic(t *testing.T) {
	rec := urbanRecord()
	first := ComputeScores(rec, DefaultWeights())
	second := ComputeScores(rec, DefaultWeights())
	assert.Equal(t, first, second)
}

func TestComputeScores_ZeroRecordIsComplete(t *testing.T) {
	scores := ComputeScores(RawDataRecord{}, DefaultWeights())

	require.Len(t, scores, len(MetricNames)+1)
	for name, score := range scores {
		assert.False(t, score != score, "NaN score for %s", name)
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 100.0, name)
	}

	// Zero crime index and zero AQI invert to perfect scores; everything
	// else bottoms out.
	assert.Equal(t, 100.0, scores[MetricSafety])
	assert.Equal(t, 100.0, scores[MetricEnvironment])
	assert.Equal(t, 0.0, scores[MetricHealth])
	assert.Equal(t, 0.0, scores[MetricHousing])
	assert.Equal(t, 29.0, scores[OverallKey])
}

func TestComputeScores_ShortageAreaPenalty(t *testing.T) {
	rec := urbanRecord()
	withScores := ComputeScores(rec, DefaultWeights())

	rec.Health.IsHPSA = true
	penalized := ComputeScores(rec, DefaultWeights())

	// 15 raw points at the 2.5 scale factor.
	assert.Equal(t, withScores[MetricHealth]-37.5, penalized[MetricHealth])
}

func TestComputeScores_HealthIsCapped(t *testing.T) {
	rec := RawDataRecord{
		Health: HealthData{PrimaryCareCenters: 100, Hospitals: 100},
	}
	scores := ComputeScores(rec, DefaultWeights())
	assert.Equal(t, 100.0, scores[MetricHealth])
}

func TestComputeScores_DerivedRentRatio(t *testing.T) {
	income := 60000.0
	rent := 1500.0

	// No surveyed burden ratio: monthly rent over annual income, so the
	// derived ratio lands at the generous end of the band.
	rec := RawDataRecord{
		Census:  CensusData{MedianIncome: &income},
		Housing: HousingData{MedianRent: &rent},
	}
	scores := ComputeScores(rec, DefaultWeights())
	assert.Equal(t, 100.0, scores[MetricHousing])

	// No income either: the pessimistic 0.6 default bottoms the score out.
	rec.Census.MedianIncome = nil
	scores = ComputeScores(rec, DefaultWeights())
	assert.Equal(t, 0.0, scores[MetricHousing])
}

func TestComputeScores_AccessibilityCapped(t *testing.T) {
	rec := RawDataRecord{
		OSM: POIData{Parks: 50, GroceryStores: 50, Clinics: 50, TransitStops: 200},
	}
	scores := ComputeScores(rec, DefaultWeights())
	assert.Equal(t, 100.0, scores[MetricAccessibility])
}

func TestOverall_SingleWeight(t *testing.T) {
	scores := ComputeScores(urbanRecord(), DefaultWeights())
	overall := Overall(scores, Weights{Safety: 1})
	assert.Equal(t, scores[MetricSafety], overall)
}

func TestOverall_ZeroWeightsDoesNotDivideByZero(t *testing.T) {
	scores := ComputeScores(urbanRecord(), DefaultWeights())
	assert.Equal(t, 0.0, Overall(scores, Weights{}))
}

func TestOverall_UnevenWeights(t *testing.T) {
	scores := ScoreSet{MetricSafety: 80, MetricHealth: 40}
	// Total 3.0, not 1.0: the mean divides by the actual total.
	overall := Overall(scores, Weights{Safety: 2, Health: 1})
	assert.Equal(t, round1((80*2+40*1)/3.0), overall)
}
