package census

import (
	"context"
	"math"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// ACS variables for the demographics fetch.
const (
	varMedianIncome  = "B19013_001E"
	varTotalPop      = "B01003_001E"
	varHouseholdSize = "S1101_C01_002E"

	// B15003: educational attainment for the population 25 and over.
	// Total base, then bachelor's, master's, professional, doctorate.
	varsEducation = "B15003_001E,B15003_022E,B15003_023E,B15003_024E,B15003_025E"
)

// baselineHouseholdSize is the national average used when the household-size
// lookup fails.
const baselineHouseholdSize = 2.5

// Demographics fetches median household income, the bachelor's-or-higher
// rate, and the weighted resident base. It implements domain.CensusSource.
type Demographics struct {
	client *Client
}

// NewDemographics creates the demographics source on a shared ACS client.
func NewDemographics(client *Client) *Demographics {
	return &Demographics{client: client}
}

// State resolves the state for a ZIP via the shared ACS client.
func (d *Demographics) State(ctx context.Context, zip string) (string, error) {
	return d.client.State(ctx, zip)
}

// Fetch queries income, education, and population independently; each failed
// piece falls back on its own so one missing table never discards the others.
func (d *Demographics) Fetch(ctx context.Context, zip string) (domain.CensusData, domain.Provenance) {
	data := domain.CensusData{}
	live, fallen := 0, 0

	if rows, err := d.client.queryVintages(ctx, varMedianIncome, zip); err == nil {
		if income, ok := cellFloat(rows[1], 0); ok {
			data.MedianIncome = &income
			live++
		} else {
			fallen++
		}
	} else {
		d.client.logger.Warn("census income fetch failed", "zip", zip, "error", err)
		fallen++
	}

	if rows, err := d.client.queryVintages(ctx, varsEducation, zip); err == nil {
		data.BachelorsRate = bachelorsRate(rows[1])
		live++
	} else {
		d.client.logger.Warn("census education fetch failed", "zip", zip, "error", err)
		fallen++
	}

	totalPop := 0.0
	if rows, err := d.client.queryVintages(ctx, varTotalPop, zip); err == nil {
		if pop, ok := cellFloat(rows[1], 0); ok {
			totalPop = pop
			live++
		} else {
			fallen++
		}
	} else {
		d.client.logger.Warn("census population fetch failed", "zip", zip, "error", err)
		fallen++
	}

	// Average household size. The subject-table variable is not served by
	// the acs5 endpoint in every vintage; a failed lookup keeps the
	// national baseline of 2.5.
	householdSize := baselineHouseholdSize
	if rows, err := d.client.queryVintages(ctx, varHouseholdSize, zip); err == nil {
		if hh, ok := cellFloat(rows[1], 0); ok {
			householdSize = hh
		}
	}

	if totalPop > 0 {
		base := int(math.Round(totalPop * (householdSize / baselineHouseholdSize)))
		data.ResidentBase = &base
	}

	switch {
	case fallen == 0:
		return data, domain.ProvenanceLive
	case live == 0:
		return data, domain.ProvenanceFallback
	default:
		return data, domain.ProvenancePartial
	}
}

// bachelorsRate computes the share of the 25+ population holding a
// bachelor's degree or higher, as a percentage rounded to two decimals.
func bachelorsRate(row []any) float64 {
	total, ok := cellFloat(row, 0)
	if !ok || total <= 0 {
		return 0
	}
	var degrees float64
	for i := 1; i <= 4; i++ {
		if v, ok := cellFloat(row, i); ok {
			degrees += v
		}
	}
	return math.Round(degrees/total*100*100) / 100
}
