package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// demographicsSource is the census surface the crime proxy needs: the
// standard fetch plus state resolution for the baseline lookup.
type demographicsSource interface {
	domain.CensusSource
	State(ctx context.Context, zip string) (string, error)
}

// CrimeProxy implements domain.CrimeSource. There is no public ZIP-level
// crime feed, so the index is modeled: the state violent-crime baseline
// blended with local income, education, and police-presence signals. See
// domain.CrimeIndex for the weighting.
type CrimeProxy struct {
	census demographicsSource
	poi    domain.POISource
	logger *slog.Logger
}

// NewCrimeProxy creates the crime source over census and POI inputs.
func NewCrimeProxy(census demographicsSource, poi domain.POISource, logger *slog.Logger) *CrimeProxy {
	return &CrimeProxy{
		census: census,
		poi:    poi,
		logger: logger,
	}
}

func (p *CrimeProxy) Fetch(ctx context.Context, zip string) (domain.CrimeData, domain.Provenance) {
	degraded := 0

	state, err := p.census.State(ctx, zip)
	if err != nil {
		p.logger.Warn("state lookup failed, using national crime baseline", "zip", zip, "error", err)
		degraded++
	}
	baseline := domain.StateCrimeBaseline(state)

	censusData, censusProv := p.census.Fetch(ctx, zip)
	if censusProv == domain.ProvenanceFallback {
		degraded++
	}

	poiData, poiProv := p.poi.Fetch(ctx, zip)
	if poiProv == domain.ProvenanceFallback {
		degraded++
	}

	var income float64
	if censusData.MedianIncome != nil {
		income = *censusData.MedianIncome
	}

	index := domain.CrimeIndex(baseline, income, censusData.BachelorsRate, poiData.PoliceStations)
	data := domain.CrimeData{PerThousand: index}

	switch degraded {
	case 0:
		return data, domain.ProvenanceLive
	case 3:
		return data, domain.ProvenanceFallback
	default:
		return data, domain.ProvenancePartial
	}
}
