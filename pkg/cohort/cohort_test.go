package cohort

import (
	"reflect"
	"testing"

	"github.com/ericdfournier/la100es/pkg/parcel"
)

func TestAssignDisadvantaged(t *testing.T) {
	parcels := []*parcel.Parcel{
		{ID: "a", CensusTract: "06037101110"},
		{ID: "b", CensusTract: "06037101220"},
		{ID: "c", CensusTract: "06037999999"},
		{ID: "d", CensusTract: "06037999999", DACScore: parcel.Known(90)},
		{ID: "e", CensusTract: "06037888888", Disadvantaged: true},
	}
	scores := map[string]float64{
		"06037101110": 75,
		"06037101220": 74.9,
	}
	c, err := AssignDisadvantaged(parcels, scores, DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}

	want := []bool{true, false, false, true, true}
	for i, p := range parcels {
		if p.Disadvantaged != want[i] {
			t.Errorf("%s disadvantaged = %v, want %v", p.ID, p.Disadvantaged, want[i])
		}
	}
	if parcels[0].DACScore.V != 75 {
		t.Errorf("score not copied onto parcel: %v", parcels[0].DACScore)
	}
	if c.Disadvantaged != 3 || c.Unscored != 2 {
		t.Errorf("counts = %+v, want 3 disadvantaged, 2 unscored", c)
	}
	wantMissing := []string{"06037888888", "06037999999"}
	if !reflect.DeepEqual(c.MissingTracts, wantMissing) {
		t.Errorf("missing tracts = %v, want %v", c.MissingTracts, wantMissing)
	}
}

func TestAssignWithoutScoreTable(t *testing.T) {
	parcels := []*parcel.Parcel{
		{ID: "a", CensusTract: "1", DACScore: parcel.Known(80)},
		{ID: "b", CensusTract: "2", DACScore: parcel.Known(10)},
	}
	c, err := AssignDisadvantaged(parcels, nil, DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if !parcels[0].Disadvantaged || parcels[1].Disadvantaged {
		t.Error("parcel scores should drive the flag without a tract table")
	}
	if len(c.MissingTracts) != 0 {
		t.Errorf("missing tracts = %v, want none without a table", c.MissingTracts)
	}
}

func TestThresholdRange(t *testing.T) {
	for _, th := range []float64{120, 0, -1} {
		if _, err := AssignDisadvantaged(nil, nil, th); err == nil {
			t.Errorf("expected error for threshold %g", th)
		}
	}
	if _, err := AssignDisadvantaged(nil, nil, 100); err != nil {
		t.Errorf("threshold 100: %v", err)
	}
}
