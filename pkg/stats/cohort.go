package stats

import "github.com/ericdfournier/la100es/pkg/parcel"

// Capacity buckets on the existing rating.
const (
	LowCapacity  = 100.0
	HighCapacity = 200.0
)

// Buckets counts parcels by existing capacity.
type Buckets struct {
	Below100   int `json:"below_100"`
	From100    int `json:"from_100_to_200"`
	AtLeast200 int `json:"at_least_200"`
	Unknown    int `json:"unknown"`
}

// CohortStats is the diagnostic summary for one cohort.
type CohortStats struct {
	Cohort         parcel.Cohort `json:"cohort"`
	Parcels        int           `json:"parcels"`
	MeanYearBuilt  parcel.Float  `json:"mean_year_built"`
	PermittedPct   float64       `json:"permitted_pct"`
	InferredPct    float64       `json:"inferred_pct"`
	NotUpgradedPct float64       `json:"not_upgraded_pct"`
	Capacity       Buckets       `json:"capacity"`
}

// SummarizeCohorts returns one diagnostic row per cohort, in
// parcel.Cohorts order.
func SummarizeCohorts(parcels []*parcel.Parcel) []CohortStats {
	type acc struct {
		row                 CohortStats
		years               []float64
		permitted, inferred int
	}
	accs := make(map[parcel.Cohort]*acc, len(parcel.Cohorts))
	for _, c := range parcel.Cohorts {
		accs[c] = &acc{row: CohortStats{Cohort: c}}
	}

	for _, p := range parcels {
		a := accs[p.Cohort()]
		a.row.Parcels++
		if p.HasYear() {
			a.years = append(a.years, float64(p.YearBuilt))
		}
		switch {
		case p.PermittedUpgrade:
			a.permitted++
		case p.InferredUpgrade:
			a.inferred++
		}
		switch {
		case !p.Existing.Valid:
			a.row.Capacity.Unknown++
		case p.Existing.V < LowCapacity:
			a.row.Capacity.Below100++
		case p.Existing.V < HighCapacity:
			a.row.Capacity.From100++
		default:
			a.row.Capacity.AtLeast200++
		}
	}

	out := make([]CohortStats, 0, len(parcel.Cohorts))
	for _, c := range parcel.Cohorts {
		a := accs[c]
		r := a.row
		r.MeanYearBuilt = mean(a.years)
		r.PermittedPct = Pct(a.permitted, r.Parcels)
		r.InferredPct = Pct(a.inferred, r.Parcels)
		r.NotUpgradedPct = Pct(r.Parcels-a.permitted-a.inferred, r.Parcels)
		out = append(out, r)
	}
	return out
}
