package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericdfournier/la100es/pkg/config"
	"github.com/ericdfournier/la100es/pkg/parcel"
)

const header = "parcel_id,sector,census_tract,year_built,building_sqft,units,permit_description,permit_issue_date,panel_related_permit\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRecordsMissingColumn(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("parcel_id,year_built\n1,1960\n"), "parcels.csv", RequiredColumns, nil)
	var mf *parcel.MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, ColCensusTract, mf.Field)
	assert.Equal(t, "parcels.csv", mf.Source)
	assert.ErrorIs(t, err, parcel.ErrMissingField)
}

func TestReadRecordsHeaderNormalized(t *testing.T) {
	recs, err := ReadRecords(strings.NewReader("\ufeffParcel_ID, Census_Tract ,YEAR_BUILT,building_sqft\nA,1,1960,1200\nB,2\n"), "x", RequiredColumns, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0][ColParcelID])
	assert.Equal(t, "", recs[1][ColYearBuilt])
}

func TestReadRecordsProgress(t *testing.T) {
	var buf bytes.Buffer
	recs, err := ReadRecords(strings.NewReader("census_tract,score\n1,50\n2,80\n"), "scores", []string{ColCensusTract, ColScore}, &buf)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLoadParcelsCSVMergesPermits(t *testing.T) {
	path := writeFile(t, "parcels.csv", header+
		"A,single_family,06037101110.0,1960,2400,1,\"INSTALL 200 AMP PANEL\",2016-04-12,true\n"+
		"A,single_family,06037101110,1960,2400,1,solar pv,04/02/2019,yes\n"+
		"B,Single-Family,06037101220,1955-01-01,nan,1,,,\n"+
		"C,multi_family,06037101220,1970,9000,12,,,\n")

	parcels, report, err := LoadParcelsCSV(path, Options{Sector: parcel.SingleFamily})
	require.NoError(t, err)
	require.Len(t, parcels, 2)

	a := parcels[0]
	assert.Equal(t, "A", a.ID)
	assert.Equal(t, "06037101110", a.CensusTract)
	assert.Equal(t, 1960, a.YearBuilt)
	require.Len(t, a.Permits, 2)
	assert.Equal(t, 2016, a.Permits[0].IssueYear)
	assert.Equal(t, 2019, a.Permits[1].IssueYear)
	assert.True(t, a.Permits[1].PanelRelated)

	b := parcels[1]
	assert.Equal(t, parcel.SingleFamily, b.Sector)
	assert.Equal(t, 1955, b.YearBuilt)
	assert.False(t, b.BuildingSqft.Valid)
	assert.Empty(t, b.Permits)

	assert.True(t, report.Valid)
	require.Len(t, report.Info, 1)
	assert.Equal(t, 1, report.Info[0].Count)
	assert.Empty(t, report.Warnings)
}

func TestAssembleConflicts(t *testing.T) {
	recs := []Record{
		{ColParcelID: "A", ColCensusTract: "1", ColYearBuilt: "1960", ColBuildingSqft: "1000"},
		{ColParcelID: "A", ColCensusTract: "1", ColYearBuilt: "1961", ColBuildingSqft: "1000"},
	}
	parcels, report, err := Assemble(recs, "test", Options{})
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, 1960, parcels[0].YearBuilt)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 1, report.Warnings[0].Count)
}

func TestAssembleErrors(t *testing.T) {
	tests := map[string]Record{
		"missing id": {ColCensusTract: "1"},
		"bad sector": {ColParcelID: "A", ColSector: "industrial"},
		"bad year":   {ColParcelID: "A", ColYearBuilt: "sometime"},
		"bad area":   {ColParcelID: "A", ColBuildingSqft: "big"},
		"bad flag":   {ColParcelID: "A", ColPanelRelated: "maybe"},
		"bad date":   {ColParcelID: "A", ColIssueDate: "12.03.2019"},
		"short year": {ColParcelID: "A", ColYearBuilt: "60"},
	}
	for name, rec := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Assemble([]Record{rec}, "test", Options{})
			assert.Error(t, err)
		})
	}

	_, _, err := Assemble([]Record{{ColParcelID: "A", ColSector: "industrial"}}, "test", Options{})
	assert.ErrorIs(t, err, parcel.ErrInvalidSector)
}

func TestParseYear(t *testing.T) {
	tests := map[string]int{
		"":                     0,
		"NaT":                  0,
		"1960":                 1960,
		"1960.0":               1960,
		"2016-04-12":           2016,
		"2016-04-12 10:30:00":  2016,
		"2016-04-12T10:30:00Z": 2016,
		"4/2/2019":             2019,
	}
	for in, want := range tests {
		got, err := parseYear(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLoadTractScores(t *testing.T) {
	path := writeFile(t, "scores.csv", "census_tract,score\n06037101110,82.4\n06037101220,\n6037203100.0,91\n")
	scores, err := LoadTractScores(path, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"06037101110": 82.4, "6037203100": 91}, scores)

	bad := writeFile(t, "bad.csv", "census_tract,score\n1,high\n")
	_, err = LoadTractScores(bad, nil)
	assert.Error(t, err)
}

func TestLoadBoundariesCSV(t *testing.T) {
	path := writeFile(t, "areas.csv", "census_tract,area\n1,Eastside\n2,Eastside\n3,Westside\n4,\n")
	layer, err := LoadBoundaries(path, nil)
	require.NoError(t, err)
	assert.Len(t, layer, 3)
	assert.Equal(t, "Westside", layer["3"])

	dup := writeFile(t, "dup.csv", "census_tract,area\n1,Eastside\n1,Westside\n")
	_, err = LoadBoundaries(dup, nil)
	assert.Error(t, err)
}

func TestLoadBoundariesYAML(t *testing.T) {
	path := writeFile(t, "areas.yaml", "areas:\n  Boyle Heights:\n    - \"06037101110\"\n    - \"06037203100.0\"\n  Westwood: [\"06037204920\"]\n")
	layer, err := LoadBoundaries(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Boyle Heights", layer["06037101110"])
	assert.Equal(t, "Boyle Heights", layer["06037203100"])
	assert.Equal(t, "Westwood", layer["06037204920"])
}

func TestExampleProject(t *testing.T) {
	a, err := config.LoadProject("../../examples/la-single-family")
	require.NoError(t, err)

	parcels, report, err := LoadParcelsCSV(a.Resolve(a.Inputs.Parcels), Options{Sector: parcel.SingleFamily})
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Len(t, parcels, 48)

	scores, err := LoadTractScores(a.Resolve(a.Inputs.TractScores), nil)
	require.NoError(t, err)
	assert.Len(t, scores, 4)

	layer, err := LoadBoundaries(a.Resolve(a.Inputs.Boundaries), nil)
	require.NoError(t, err)
	assert.Len(t, layer, 4)
}

func TestFormatValue(t *testing.T) {
	var num pgtype.Numeric
	require.NoError(t, num.Scan("2400.5"))

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("y"), "y"},
		{true, "true"},
		{int32(1960), "1960"},
		{int64(7), "7"},
		{float64(2400.5), "2400.5"},
		{time.Date(2016, 4, 12, 0, 0, 0, 0, time.UTC), "2016-04-12"},
		{num, "2400.5"},
		{pgtype.Numeric{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

// TestPostgresIntegration runs against a live database when
// LA100ES_TEST_DATABASE_URL is set.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("LA100ES_TEST_DATABASE_URL") == "" {
		t.Skip("LA100ES_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := OpenPostgres(ctx, &config.Database{DSNEnv: "LA100ES_TEST_DATABASE_URL"})
	require.NoError(t, err)
	defer pg.Close()

	parcels, _, err := pg.LoadParcels(ctx, `
		SELECT 'A' AS parcel_id, 'single_family' AS sector, '06037101110' AS census_tract,
		       1960 AS year_built, 2400.0::numeric AS building_sqft,
		       'INSTALL 200 AMP PANEL' AS permit_description, DATE '2016-04-12' AS permit_issue_date,
		       true AS panel_related_permit
	`, Options{})
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, 2400.0, parcels[0].BuildingSqft.V)
	assert.Equal(t, 2016, parcels[0].Permits[0].IssueYear)

	_, _, err = pg.LoadParcels(ctx, `SELECT 1 AS parcel_id`, Options{})
	assert.ErrorIs(t, err, parcel.ErrMissingField)
}
