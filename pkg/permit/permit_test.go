package permit

import (
	"reflect"
	"testing"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/sector"
)

func sf(t *testing.T) *sector.Config {
	t.Helper()
	cfg, err := sector.For(parcel.SingleFamily)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func mf(t *testing.T) *sector.Config {
	t.Helper()
	cfg, err := sector.For(parcel.MultiFamily)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestClassify(t *testing.T) {
	cfg := sf(t)
	tests := []struct {
		desc    string
		kind    Kind
		sizes   []float64
		keyword string
	}{
		{"INSTALL 200 AMP PANEL UPGRADE", SizeMatch, []float64{200}, ""},
		{"200A main service change", SizeMatch, []float64{200}, ""},
		{"upgrade 100 to 200 amp", SizeMatch, []float64{100, 200}, ""},
		{"Service upgrade 225 amps w/ solar", SizeMatch, []float64{225}, ""},
		{"SOLAR PV INSTALLATION", OtherPanelWork, nil, "solar"},
		{"rooftop PV", OtherPanelWork, nil, "pv"},
		{"solar panels on roof", OtherPanelWork, nil, "solar"},
		{"Level 2 EV charger in garage", OtherPanelWork, nil, "ev"},
		{"replace A/C condenser", OtherPanelWork, nil, "a/c"},
		{"photovoltaic system", OtherPanelWork, nil, "photovoltaic"},
		{"new 200amp service", SizeMatch, []float64{200}, ""},
		{"new a/c unit", OtherPanelWork, nil, "a/c"},
		{"AC condenser, 3 ton", OtherPanelWork, nil, "ac"},
		{"reroof 1200 sq ft", NotPanelRelated, nil, ""},
		{"kitchen remodel at 4200 main st", NotPanelRelated, nil, ""},
		{"reroof at 1500 main st", NotPanelRelated, nil, ""},
		{"2000 sq ft addition", NotPanelRelated, nil, ""},
		{"ADD ACCESSORY DWELLING UNIT", NotPanelRelated, nil, ""},
		{"REPAIR EVERY WINDOW", NotPanelRelated, nil, ""},
		{"acoustical ceiling tiles", NotPanelRelated, nil, ""},
		{"evaluate foundation", NotPanelRelated, nil, ""},
		{"", NotPanelRelated, nil, ""},
	}
	for _, tt := range tests {
		got := Classify(tt.desc, cfg)
		if got.Kind != tt.kind {
			t.Errorf("Classify(%q).Kind = %s, want %s", tt.desc, got.Kind, tt.kind)
			continue
		}
		if !reflect.DeepEqual(got.Sizes, tt.sizes) {
			t.Errorf("Classify(%q).Sizes = %v, want %v", tt.desc, got.Sizes, tt.sizes)
		}
		if got.Keyword != tt.keyword {
			t.Errorf("Classify(%q).Keyword = %q, want %q", tt.desc, got.Keyword, tt.keyword)
		}
	}
}

func TestClassifyTokenSetBySector(t *testing.T) {
	got := Classify("new 400 amp service", mf(t))
	if got.Kind != NotPanelRelated {
		t.Errorf("multi-family 400: kind = %s, want not_panel_related", got.Kind)
	}
	got = Classify("new 400 amp service", sf(t))
	if got.Kind != SizeMatch || got.Max() != 400 {
		t.Errorf("single-family 400: got %+v", got)
	}
}

func TestClassify125Prefix(t *testing.T) {
	got := Classify("125 amp subpanel", mf(t))
	if got.Kind != SizeMatch || got.Max() != 125 {
		t.Errorf("got %+v, want SizeMatch(125)", got)
	}
	got = Classify("120 volt circuit", mf(t))
	if got.Kind == SizeMatch {
		t.Errorf("120 should not match the 125 token, got %+v", got)
	}
}

func TestClassifyPermitFlag(t *testing.T) {
	cfg := sf(t)
	c := ClassifyPermit(parcel.Permit{Description: "misc electrical", PanelRelated: true, IssueYear: 2019}, cfg)
	if c.Kind != OtherPanelWork {
		t.Errorf("flagged permit kind = %s, want other_panel_work", c.Kind)
	}
	if c.IssueYear != 2019 {
		t.Errorf("IssueYear = %d, want 2019", c.IssueYear)
	}
	c = ClassifyPermit(parcel.Permit{Description: "misc electrical"}, cfg)
	if c.Kind != NotPanelRelated {
		t.Errorf("unflagged permit kind = %s, want not_panel_related", c.Kind)
	}
}

func TestClassifyAll(t *testing.T) {
	cfg := sf(t)
	parcels := []*parcel.Parcel{
		{ID: "a", Permits: []parcel.Permit{
			{Description: "new 200 amp panel", IssueYear: 2018},
			{Description: "bathroom remodel", IssueYear: 2012},
			{Description: "solar pv", IssueYear: 2015},
			{Description: "upgrade to 400", IssueYear: 0},
		}},
		{ID: "b", Permits: []parcel.Permit{
			{Description: "fence"},
			{Description: "ADD ACCESSORY DWELLING UNIT", IssueYear: 2019},
			{Description: "reroof at 1500 main st", IssueYear: 2020},
		}},
		{ID: "c"},
	}
	got := ClassifyAll(parcels, cfg)
	if len(got) != 1 {
		t.Fatalf("parcels with panel work = %d, want 1", len(got))
	}
	a := got["a"]
	if len(a) != 3 {
		t.Fatalf("classifications for a = %d, want 3", len(a))
	}
	wantYears := []int{2015, 2018, 0}
	for i, c := range a {
		if c.IssueYear != wantYears[i] {
			t.Errorf("a[%d].IssueYear = %d, want %d", i, c.IssueYear, wantYears[i])
		}
	}
}

func TestKindText(t *testing.T) {
	b, _ := OtherPanelWork.MarshalText()
	if string(b) != "other_panel_work" {
		t.Errorf("MarshalText = %s", b)
	}
}
