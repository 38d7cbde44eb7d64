package census

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

const testZip = "07306"

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// acsHandler routes fake ACS responses by vintage and variable list.
func acsHandler(responses map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + "?" + r.URL.Query().Get("get")
		body, ok := responses[key]
		if !ok {
			http.Error(w, "unknown variables", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_VintageFallback(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path == "/2022/acs/acs5" {
			http.Error(w, "unsupported vintage", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[["B19013_001E","zcta"],["85000","07306"]]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	rows, err := c.queryVintages(context.Background(), varMedianIncome, testZip)
	require.NoError(t, err)

	income, ok := cellFloat(rows[1], 0)
	assert.True(t, ok)
	assert.Equal(t, 85000.0, income)

	// 2022 is retried before falling through to 2021.
	assert.Contains(t, hits, "/2021/acs/acs5")
	assert.Equal(t, "/2022/acs/acs5", hits[0])
}

func TestClient_State(t *testing.T) {
	t.Run("state present", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[["NAME","zcta"],["ZCTA5 07306, New Jersey","07306"]]`))
		}))
		defer srv.Close()

		state, err := testClient(srv.URL).State(context.Background(), testZip)
		require.NoError(t, err)
		assert.Equal(t, "New Jersey", state)
	})

	t.Run("no state component", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[["NAME","zcta"],["ZCTA5 07306","07306"]]`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).State(context.Background(), testZip)
		require.Error(t, err)
	})
}

func TestDemographics_Fetch(t *testing.T) {
	responses := map[string]string{
		"/2022/acs/acs5?" + varMedianIncome:  `[["B19013_001E","zcta"],["85000","07306"]]`,
		"/2022/acs/acs5?" + varsEducation:    `[["B15003_001E","B15003_022E","B15003_023E","B15003_024E","B15003_025E","zcta"],["10000","2500","1000","300","200","07306"]]`,
		"/2022/acs/acs5?" + varTotalPop:      `[["B01003_001E","zcta"],["42000","07306"]]`,
		"/2022/acs/acs5?" + varHouseholdSize: `[["S1101_C01_002E","zcta"],["3.0","07306"]]`,
	}
	srv := httptest.NewServer(acsHandler(responses))
	defer srv.Close()

	d := NewDemographics(testClient(srv.URL))
	data, prov := d.Fetch(context.Background(), testZip)

	assert.Equal(t, domain.ProvenanceLive, prov)
	require.NotNil(t, data.MedianIncome)
	assert.Equal(t, 85000.0, *data.MedianIncome)
	// (2500+1000+300+200)/10000 = 40%
	assert.Equal(t, 40.0, data.BachelorsRate)
	// 42000 * (3.0/2.5) = 50400
	require.NotNil(t, data.ResidentBase)
	assert.Equal(t, 50400, *data.ResidentBase)
}

func TestDemographics_Fetch_TotalOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = time.Second

	d := NewDemographics(c)
	data, prov := d.Fetch(context.Background(), testZip)

	assert.Equal(t, domain.ProvenanceFallback, prov)
	assert.Nil(t, data.MedianIncome)
	assert.Zero(t, data.BachelorsRate)
	assert.Nil(t, data.ResidentBase)
}

func TestBachelorsRate(t *testing.T) {
	t.Run("rounds to two decimals", func(t *testing.T) {
		row := []any{"9000", "1000", "500", "100", "50"}
		// 1650/9000 = 18.3333...%
		assert.Equal(t, 18.33, bachelorsRate(row))
	})

	t.Run("zero base", func(t *testing.T) {
		assert.Zero(t, bachelorsRate([]any{"0", "10", "10", "10", "10"}))
	})

	t.Run("null base", func(t *testing.T) {
		assert.Zero(t, bachelorsRate([]any{nil, "10", "10", "10", "10"}))
	})
}
