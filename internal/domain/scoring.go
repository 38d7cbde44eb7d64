package domain

import "math"

// Metric names produced by the scoring engine.
const (
	MetricSafety        = "Safety"
	MetricHealth        = "Health"
	MetricEducation     = "Education"
	MetricEconomic      = "EconomicOpportunity"
	MetricHousing       = "HousingAffordability"
	MetricDigitalAccess = "DigitalAccess"
	MetricEnvironment   = "Environment"
	MetricAccessibility = "Accessibility"

	// OverallKey is the derived composite score entry in a ScoreSet.
	OverallKey = "OverallCivicScore"
)

// MetricNames lists the eight metrics in their canonical order. The overall
// score is summed in this order so the result does not depend on map
// iteration.
var MetricNames = []string{
	MetricSafety,
	MetricHealth,
	MetricEducation,
	MetricEconomic,
	MetricHousing,
	MetricDigitalAccess,
	MetricEnvironment,
	MetricAccessibility,
}

// Weights holds the per-metric weights for the overall score. Defaults sum
// to 1.0 but the total is not enforced; the weighted mean divides by the
// actual total (with an epsilon floor).
type Weights struct {
	Safety        float64
	Health        float64
	Education     float64
	Economic      float64
	Housing       float64
	DigitalAccess float64
	Environment   float64
	Accessibility float64
}

// DefaultWeights returns the standard metric weighting.
func DefaultWeights() Weights {
	return Weights{
		Safety:        0.22,
		Health:        0.18,
		Education:     0.15,
		Economic:      0.10,
		Housing:       0.13,
		DigitalAccess: 0.10,
		Environment:   0.07,
		Accessibility: 0.05,
	}
}

func (w Weights) byMetric() map[string]float64 {
	return map[string]float64{
		MetricSafety:        w.Safety,
		MetricHealth:        w.Health,
		MetricEducation:     w.Education,
		MetricEconomic:      w.Economic,
		MetricHousing:       w.Housing,
		MetricDigitalAccess: w.DigitalAccess,
		MetricEnvironment:   w.Environment,
		MetricAccessibility: w.Accessibility,
	}
}

// ScoreSet maps metric names (plus OverallKey) to scores in [0, 100].
type ScoreSet map[string]float64

// minWeightTotal guards the overall-score division when every weight is zero.
const minWeightTotal = 0.00001

// ComputeScores derives the eight metric scores and the weighted overall
// score from a raw-data record. It is pure and deterministic: identical input
// yields an identical ScoreSet, the input is never mutated, and a record full
// of fallback values still produces a complete set with no NaNs.
func ComputeScores(rec RawDataRecord, weights Weights) ScoreSet {
	// Safety. The crime proxy is already a 0-100 risk index; re-normalizing
	// it over [0, 150] is the historical behavior and compresses low-risk
	// values toward the high-safety end. See CrimeData.PerThousand.
	safety := NormalizeField(rec.Crime.PerThousand, "crime_per_1k", true)

	// Health: capped facility points, shortage-area penalty, scaled.
	primaryCarePoints := math.Min(float64(rec.Health.PrimaryCareCenters)*3, 40)
	hospitalPoints := math.Min(float64(rec.Health.Hospitals)*10, 30)
	rawHealth := primaryCarePoints + hospitalPoints
	if rec.Health.IsHPSA {
		rawHealth -= 15
	}
	health := math.Min(math.Max(rawHealth*2.5, 0), 100)

	education := NormalizeField(rec.Census.BachelorsRate, "bachelors_rate", false)

	income := floatOrZero(rec.Census.MedianIncome)
	incomeScore := NormalizeField(income, "median_income", false)
	economic := round1((education + incomeScore) / 2)

	housing := housingAffordability(rec.Housing, income)

	digital := NormalizeField(rec.Broadband.BroadbandPct, "broadband_pct", false)

	environment := NormalizeField(rec.AirQuality.AQI, "aqi", true)

	poiTotal := float64(rec.OSM.Parks)*3 +
		float64(rec.OSM.GroceryStores)*2 +
		float64(rec.OSM.Clinics)*4 +
		float64(rec.OSM.TransitStops)
	accessibility := math.Min(round1(poiTotal/200*100), 100)

	scores := ScoreSet{
		MetricSafety:        round1(safety),
		MetricHealth:        round1(health),
		MetricEducation:     round1(education),
		MetricEconomic:      economic,
		MetricHousing:       round1(housing),
		MetricDigitalAccess: round1(digital),
		MetricEnvironment:   round1(environment),
		MetricAccessibility: accessibility,
	}
	scores[OverallKey] = Overall(scores, weights)
	return scores
}

// Overall computes the weighted mean of the eight metric scores, rounded to
// one decimal. Metrics are summed in canonical order so the result is
// independent of how the ScoreSet was assembled.
func Overall(scores ScoreSet, weights Weights) float64 {
	byMetric := weights.byMetric()

	var weightedSum, weightTotal float64
	for _, name := range MetricNames {
		value, ok := scores[name]
		if !ok {
			continue
		}
		w := byMetric[name]
		weightedSum += value * w
		weightTotal += w
	}

	return round1(weightedSum / math.Max(weightTotal, minWeightTotal))
}

// housingAffordability prefers the surveyed rent-burden ratio; when absent it
// derives one from median rent and income. The derived ratio divides a
// monthly rent by an annual income exactly as the historical system did; the
// inconsistency is preserved for score compatibility.
func housingAffordability(h HousingData, medianIncome float64) float64 {
	if h.RentToIncome != nil && *h.RentToIncome > 0 {
		return NormalizeField(*h.RentToIncome, "rent_to_income", true)
	}

	ratio := 0.6
	if medianIncome > 0 {
		ratio = floatOrZero(h.MedianRent) / medianIncome
	}
	return NormalizeField(ratio, "rent_to_income", true)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
