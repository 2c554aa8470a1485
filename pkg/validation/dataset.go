package validation

import (
	"fmt"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/sector"
)

// ValidateParcels checks a loaded batch against the sector rule set.
// fixedReferenceYear is 0 when ages are measured at the earliest permit
// year, which then must exist.
func ValidateParcels(parcels []*parcel.Parcel, cfg *sector.Config, fixedReferenceYear int) *Report {
	r := NewReport()
	if len(parcels) == 0 {
		r.AddError(Result{Level: LevelDataset, Message: "dataset contains no parcels"})
		return r
	}

	var wrongSector, noYear, noSize, noTract, undated, dated int
	for _, p := range parcels {
		if p.Sector != "" && p.Sector != cfg.Sector {
			wrongSector++
		}
		if !p.HasYear() {
			noYear++
		}
		if cfg.HasSizeBands() && !cfg.SizeOf(p).Valid {
			noSize++
		}
		if p.CensusTract == "" {
			noTract++
		}
		for _, pm := range p.Permits {
			if pm.IssueYear > 0 {
				dated++
			} else {
				undated++
			}
		}
	}

	if wrongSector > 0 {
		r.AddError(Result{
			Level:    LevelDataset,
			Message:  fmt.Sprintf("%d parcels are not %s", wrongSector, cfg.Sector),
			Path:     "sector",
			Count:    wrongSector,
			Expected: string(cfg.Sector),
		})
	}
	if noYear > 0 {
		r.AddWarning(Result{
			Level:   LevelDataset,
			Message: fmt.Sprintf("%d parcels have no construction year and resolve to a null rating", noYear),
			Path:    "year_built",
			Count:   noYear,
		})
	}
	if noSize > 0 {
		r.AddWarning(Result{
			Level:   LevelDataset,
			Message: fmt.Sprintf("%d parcels have no %s and resolve to a null rating", noSize, cfg.SizeField),
			Path:    cfg.SizeField,
			Count:   noSize,
		})
	}
	if noTract > 0 {
		r.AddWarning(Result{
			Level:   LevelDataset,
			Message: fmt.Sprintf("%d parcels have no census tract and are left out of area statistics", noTract),
			Path:    "census_tract",
			Count:   noTract,
		})
	}
	if undated > 0 {
		r.AddInfo(Result{
			Level:   LevelDataset,
			Message: fmt.Sprintf("%d permits have no issue date and do not contribute upgrade ages", undated),
			Path:    "permit_issue_date",
			Count:   undated,
		})
	}
	if dated == 0 && fixedReferenceYear == 0 {
		r.AddError(Result{
			Level:       LevelDataset,
			Message:     "no dated permits to take the reference year from",
			Path:        "permit_issue_date",
			Suggestions: []string{"Set reference_year.mode: fixed with an explicit year"},
		})
	}
	return r
}
