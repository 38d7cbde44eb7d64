package census

import (
	"context"
	"math"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// ACS variables for the broadband fetch. B28002_004E is households with a
// broadband subscription, B28002_001E the total household base. The density
// query pairs land area with total population.
const (
	varsBroadband = "B28002_004E,B28002_001E"
	varsDensity   = "ALAND,B01003_001E"

	broadbandVintage = "2022"
	densityVintage   = "2020"
)

// urbanDensityReference is people per square km treated as fully urban when
// estimating the fiber share.
const urbanDensityReference = 10000

// Broadband computes broadband coverage and an estimated fiber/cable split.
// It implements domain.BroadbandSource.
//
// The fiber and cable figures are estimates, not provider data: the fiber
// share scales with population density (50% of broadband in urban cores,
// 35% suburban, 20% rural) and cable takes the residual.
type Broadband struct {
	client *Client
}

// NewBroadband creates the broadband source on a shared ACS client.
func NewBroadband(client *Client) *Broadband {
	return &Broadband{client: client}
}

func (b *Broadband) Fetch(ctx context.Context, zip string) (domain.BroadbandData, domain.Provenance) {
	rows, err := b.client.query(ctx, broadbandVintage, varsBroadband, zip, 1)
	if err != nil {
		b.client.logger.Warn("census broadband fetch failed", "zip", zip, "error", err)
		return domain.BroadbandData{}, domain.ProvenanceFallback
	}

	subscribed, okSub := cellFloat(rows[1], 0)
	total, okTotal := cellFloat(rows[1], 1)
	if !okSub || !okTotal || total == 0 {
		return domain.BroadbandData{}, domain.ProvenanceFallback
	}

	pct := round2(subscribed / total * 100)

	factor, densityLive := b.densityFactor(ctx, zip)

	var fiberShare float64
	switch {
	case factor > 0.75: // urban core
		fiberShare = 0.50
	case factor > 0.40: // suburban
		fiberShare = 0.35
	default: // rural / low density
		fiberShare = 0.20
	}

	fiber := round2(pct * fiberShare)
	cable := round2(pct - fiber)
	if cable < 0 {
		cable = 0
	}

	data := domain.BroadbandData{
		BroadbandPct: pct,
		FiberPct:     fiber,
		CablePct:     cable,
	}
	if !densityLive {
		return data, domain.ProvenancePartial
	}
	return data, domain.ProvenanceLive
}

// densityFactor estimates urbanization on a 0-1 scale from population per
// square km, normalized against the fully-urban reference. Failures land on
// the neutral 0.5 midpoint.
func (b *Broadband) densityFactor(ctx context.Context, zip string) (float64, bool) {
	const neutral = 0.5

	rows, err := b.client.query(ctx, densityVintage, varsDensity, zip, 1)
	if err != nil {
		return neutral, false
	}

	land, okLand := cellFloat(rows[1], 0)
	pop, okPop := cellFloat(rows[1], 1)
	if !okLand || !okPop {
		return neutral, false
	}

	landKm := land / 1_000_000 // ALAND is square meters
	if landKm <= 0 {
		return neutral, false
	}

	density := pop / landKm
	return round2(math.Min(density/urbanDensityReference, 1)), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
