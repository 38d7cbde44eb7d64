package census

import (
	"context"
	"strconv"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// ACS variables for the housing fetch.
const (
	varMedianRent = "B25064_001E"

	// B25070: gross rent as a percentage of household income. Total
	// respondents, then nine burden buckets from "under 10%" to "50%+".
	varsRentBurden = "B25070_001E,B25070_002E,B25070_003E,B25070_004E,B25070_005E," +
		"B25070_006E,B25070_007E,B25070_008E,B25070_009E,B25070_010E"
)

// burdenBucketMidpoints are the estimated burden percentages for the nine
// B25070 buckets (midpoint of each range; the open-ended 50%+ bucket is
// pinned at 60).
var burdenBucketMidpoints = [9]float64{5, 12.5, 17.5, 22.5, 27.5, 32.5, 37.5, 45, 60}

// Housing fetches median gross rent and the rent-burden ratio. It implements
// domain.HousingSource.
type Housing struct {
	client *Client
}

// NewHousing creates the housing source on a shared ACS client.
func NewHousing(client *Client) *Housing {
	return &Housing{client: client}
}

func (h *Housing) Fetch(ctx context.Context, zip string) (domain.HousingData, domain.Provenance) {
	data := domain.HousingData{}
	live, fallen := 0, 0

	if rows, err := h.client.queryVintages(ctx, varMedianRent, zip); err == nil {
		data.MedianRent = extractMedianRent(rows[1])
		live++
	} else {
		h.client.logger.Warn("census rent fetch failed", "zip", zip, "error", err)
		fallen++
	}

	if rows, err := h.client.queryVintages(ctx, varsRentBurden, zip); err == nil {
		data.RentToIncome = rentBurdenRatio(rows[1])
		live++
	} else {
		h.client.logger.Warn("census rent burden fetch failed", "zip", zip, "error", err)
		fallen++
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

// extractMedianRent reads the median gross rent cell, treating Census
// suppression codes (negative sentinels) and implausible medians as missing.
func extractMedianRent(row []any) *float64 {
	v, ok := cellFloat(row, 0)
	if !ok || v < 0 || v > 100000 {
		return nil
	}
	return &v
}

// rentBurdenRatio estimates the average rent burden from the B25070 bucket
// counts as a 0-1 ratio. Malformed, negative, or suppressed cells count as
// zero-population buckets. When the total-respondents cell is zero the
// bucket counts are summed as the denominator; if that is still zero the
// ratio is unknown and the caller derives one from rent and income instead.
func rentBurdenRatio(row []any) *float64 {
	// Drop the trailing geography identifier columns (state, ZCTA).
	cells := row
	if len(cells) > 2 {
		cells = cells[:len(cells)-2]
	}
	if len(cells) == 0 {
		return nil
	}

	numbers := make([]int, len(cells))
	for i := range cells {
		s, ok := cellString(cells, i)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 999999 {
			continue
		}
		numbers[i] = n
	}

	total := numbers[0]
	if total <= 0 {
		for _, n := range numbers[1:] {
			total += n
		}
	}
	if total <= 0 {
		return nil
	}

	buckets := numbers[1:]
	var weightedSum float64
	for i := 0; i < len(buckets) && i < len(burdenBucketMidpoints); i++ {
		weightedSum += float64(buckets[i]) * burdenBucketMidpoints[i]
	}

	ratio := weightedSum / float64(total) / 100
	return &ratio
}
