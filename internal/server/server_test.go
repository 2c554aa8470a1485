package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericdfournier/la100es/pkg/inference"
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/pipeline"
	"github.com/ericdfournier/la100es/pkg/stats"
	"github.com/ericdfournier/la100es/pkg/validation"
)

func testResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:         "run-1",
		Sector:        parcel.SingleFamily,
		TableVersion:  "test",
		Seed:          42,
		ReferenceYear: 2005,
		Parcels: []*parcel.Parcel{
			{ID: "A", CensusTract: "1", AsBuilt: parcel.Known(100), Existing: parcel.Known(200), PermittedUpgrade: true, PanelUpgrade: true},
			{ID: "B", CensusTract: "1", Disadvantaged: true, AsBuilt: parcel.Known(100), Existing: parcel.Known(125), InferredUpgrade: true, PanelUpgrade: true},
			{ID: "C", CensusTract: "2", Disadvantaged: true, AsBuilt: parcel.Known(60), Existing: parcel.Known(60)},
		},
		Areas:   []stats.AreaStats{{Area: "1", Parcels: 2}, {Area: "2", Parcels: 1}},
		Cohorts: []stats.CohortStats{{Cohort: parcel.CohortNonDAC, Parcels: 1}, {Cohort: parcel.CohortDAC, Parcels: 2}},
		Distributions: &inference.Distributions{
			ReferenceYear: 2005,
			OddsRatio:     1,
		},
		Validation: validation.NewReport(),
	}
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code
}

func TestRun(t *testing.T) {
	h := New(testResult(), 0, zerolog.Nop()).Routes()

	var info runInfo
	require.Equal(t, http.StatusOK, get(t, h, "/api/run", &info))
	assert.Equal(t, "run-1", info.RunID)
	assert.Equal(t, 3, info.Parcels)
	assert.Equal(t, 2005, info.ReferenceYear)
}

func TestParcels(t *testing.T) {
	h := New(testResult(), 0, zerolog.Nop()).Routes()

	tests := []struct {
		query string
		total int
		ids   []string
	}{
		{"", 3, []string{"A", "B", "C"}},
		{"?tract=1", 2, []string{"A", "B"}},
		{"?cohort=DAC", 2, []string{"B", "C"}},
		{"?upgrade=permitted", 1, []string{"A"}},
		{"?upgrade=inferred", 1, []string{"B"}},
		{"?upgrade=any", 2, []string{"A", "B"}},
		{"?upgrade=none&cohort=DAC", 1, []string{"C"}},
		{"?limit=1&offset=1", 3, []string{"B"}},
		{"?offset=10", 3, nil},
		{"?offset=2&limit=9223372036854775807", 3, []string{"C"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var page struct {
				Total   int `json:"total"`
				Parcels []struct {
					ID string `json:"parcel_id"`
				} `json:"parcels"`
			}
			require.Equal(t, http.StatusOK, get(t, h, "/api/parcels"+tt.query, &page))
			assert.Equal(t, tt.total, page.Total)
			var ids []string
			for _, p := range page.Parcels {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestParcelsBadQuery(t *testing.T) {
	h := New(testResult(), 0, zerolog.Nop()).Routes()
	for _, q := range []string{"?cohort=other", "?upgrade=maybe", "?limit=-1", "?offset=x"} {
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/parcels"+q, nil), q)
	}
}

func TestParcel(t *testing.T) {
	h := New(testResult(), 0, zerolog.Nop()).Routes()

	var p parcel.Parcel
	require.Equal(t, http.StatusOK, get(t, h, "/api/parcels/B", &p))
	assert.Equal(t, "B", p.ID)
	assert.True(t, p.InferredUpgrade)
	assert.Equal(t, parcel.Known(125), p.Existing)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/parcels/Z", nil))
}

func TestTables(t *testing.T) {
	h := New(testResult(), 0, zerolog.Nop()).Routes()

	var areas []stats.AreaStats
	require.Equal(t, http.StatusOK, get(t, h, "/api/areas", &areas))
	assert.Len(t, areas, 2)

	var cohorts []stats.CohortStats
	require.Equal(t, http.StatusOK, get(t, h, "/api/cohorts", &cohorts))
	assert.Len(t, cohorts, 2)

	var dist map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/distributions", &dist))

	var report validation.Report
	require.Equal(t, http.StatusOK, get(t, h, "/api/validation", &report))
	assert.True(t, report.Valid)
}
