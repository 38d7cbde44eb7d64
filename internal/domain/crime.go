package domain

import "math"

// stateViolentCrimeRate is the state-level violent crime rate per 100k
// residents, FBI Crime Data Explorer 2023 snapshot. Used as the baseline for
// the crime proxy index when a ZIP resolves to a known state.
var stateViolentCrimeRate = map[string]float64{
	"Alabama": 458, "Alaska": 837, "Arizona": 483, "Arkansas": 645, "California": 442,
	"Colorado": 423, "Connecticut": 184, "Delaware": 488, "DC": 996, "Florida": 258,
	"Georgia": 400, "Hawaii": 254, "Idaho": 242, "Illinois": 425, "Indiana": 358,
	"Iowa": 290, "Kansas": 416, "Kentucky": 222, "Louisiana": 639, "Maine": 108,
	"Maryland": 454, "Massachusetts": 308, "Michigan": 500, "Minnesota": 260,
	"Mississippi": 277, "Missouri": 612, "Montana": 406, "Nebraska": 284,
	"Nevada": 492, "New Hampshire": 113, "New Jersey": 195, "New Mexico": 781,
	"New York": 356, "North Carolina": 370, "North Dakota": 265, "Ohio": 308,
	"Oklahoma": 440, "Oregon": 291, "Pennsylvania": 315, "Rhode Island": 228,
	"South Carolina": 559, "South Dakota": 351, "Tennessee": 608, "Texas": 435,
	"Utah": 251, "Vermont": 190, "Virginia": 208, "Washington": 294,
	"West Virginia": 272, "Wisconsin": 283, "Wyoming": 319,
}

// nationalAvgViolentCrime is the baseline when the state is unresolvable.
const nationalAvgViolentCrime = 400

// StateCrimeBaseline returns the violent-crime baseline for a state name,
// or the national average for unknown or empty states.
func StateCrimeBaseline(state string) float64 {
	if rate, ok := stateViolentCrimeRate[state]; ok {
		return rate
	}
	return nationalAvgViolentCrime
}

// CrimeIndex combines the state baseline with local socio-economic risk into
// a 0-100 risk index (higher = more risk), rounded to one decimal. Income and
// education reduce risk as they approach 120k and 60% respectively; police
// stations reduce risk up to a saturation of 12 within the search radius.
//
// The result is stored under the crime_per_1k field and later inverted by the
// scoring engine. It is not a literal per-1k rate.
func CrimeIndex(baseline, medianIncome, bachelorsRate float64, policeStations int) float64 {
	incomeRisk := 1 - clamp01(medianIncome/120000)
	eduRisk := 1 - clamp01(bachelorsRate/60)
	policePresence := clamp01(float64(policeStations) / 12)

	raw := 0.45*(baseline/1000) +
		0.35*incomeRisk +
		0.20*eduRisk -
		0.10*policePresence

	return round1(math.Max(0, math.Min(raw*100, 100)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
