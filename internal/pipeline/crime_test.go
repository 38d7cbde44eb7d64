package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

type stubDemographics struct {
	state    string
	stateErr error
	data     domain.CensusData
	prov     domain.Provenance
}

func (s *stubDemographics) Fetch(context.Context, string) (domain.CensusData, domain.Provenance) {
	return s.data, s.prov
}

func (s *stubDemographics) State(context.Context, string) (string, error) {
	return s.state, s.stateErr
}

type stubCrimePOI struct {
	data domain.POIData
	prov domain.Provenance
}

func (s *stubCrimePOI) Fetch(context.Context, string) (domain.POIData, domain.Provenance) {
	return s.data, s.prov
}

func testCrimeProxy(census demographicsSource, poi domain.POISource) *CrimeProxy {
	return NewCrimeProxy(census, poi, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCrimeProxy_LiveInputs(t *testing.T) {
	income := 85000.0
	census := &stubDemographics{
		state: "New Jersey",
		data:  domain.CensusData{MedianIncome: &income, BachelorsRate: 40},
		prov:  domain.ProvenanceLive,
	}
	poi := &stubCrimePOI{
		data: domain.POIData{PoliceStations: 1},
		prov: domain.ProvenanceLive,
	}

	data, prov := testCrimeProxy(census, poi).Fetch(context.Background(), "07306")

	assert.Equal(t, domain.ProvenanceLive, prov)
	assert.Equal(t, 24.8, data.PerThousand)
}

func TestCrimeProxy_AllInputsDegraded(t *testing.T) {
	census := &stubDemographics{
		stateErr: errors.New("all vintages failed"),
		data:     domain.CensusData{},
		prov:     domain.ProvenanceFallback,
	}
	poi := &stubCrimePOI{prov: domain.ProvenanceFallback}

	data, prov := testCrimeProxy(census, poi).Fetch(context.Background(), "07306")

	assert.Equal(t, domain.ProvenanceFallback, prov)
	// National baseline with maximal income and education risk.
	assert.Equal(t, 73.0, data.PerThousand)
}

func TestCrimeProxy_PartialInputs(t *testing.T) {
	census := &stubDemographics{
		state: "Maine",
		data:  domain.CensusData{},
		prov:  domain.ProvenanceFallback,
	}
	poi := &stubCrimePOI{
		data: domain.POIData{PoliceStations: 3},
		prov: domain.ProvenanceLive,
	}

	_, prov := testCrimeProxy(census, poi).Fetch(context.Background(), "04101")

	assert.Equal(t, domain.ProvenancePartial, prov)
}
