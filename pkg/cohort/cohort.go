// Package cohort assigns each parcel to the disadvantaged or
// non-disadvantaged community cohort from its census tract burden score.
package cohort

import (
	"fmt"
	"sort"

	"github.com/ericdfournier/la100es/pkg/parcel"
)

// DefaultThreshold is the burden score percentile at or above which a tract
// is disadvantaged.
const DefaultThreshold = 75.0

// Counts summarizes one assignment pass.
type Counts struct {
	Parcels       int `json:"parcels"`
	Disadvantaged int `json:"disadvantaged"`
	// Unscored parcels had no tract score and no score of their own; they
	// keep whatever flag the dataset supplied.
	Unscored int `json:"unscored"`
	// MissingTracts lists tracts with parcels but no score, sorted.
	MissingTracts []string `json:"missing_tracts,omitempty"`
}

// AssignDisadvantaged sets DACScore and Disadvantaged on every parcel. A
// tract score from scores wins over a score carried on the parcel.
func AssignDisadvantaged(parcels []*parcel.Parcel, scores map[string]float64, threshold float64) (Counts, error) {
	if threshold <= 0 || threshold > 100 {
		return Counts{}, fmt.Errorf("dac threshold %g outside (0, 100]", threshold)
	}
	c := Counts{Parcels: len(parcels)}
	missing := make(map[string]bool)
	for _, p := range parcels {
		if s, ok := scores[p.CensusTract]; ok {
			p.DACScore = parcel.Known(s)
		} else if p.CensusTract != "" && len(scores) > 0 {
			missing[p.CensusTract] = true
		}

		if p.DACScore.Valid {
			p.Disadvantaged = p.DACScore.V >= threshold
		} else {
			c.Unscored++
		}
		if p.Disadvantaged {
			c.Disadvantaged++
		}
	}
	for t := range missing {
		c.MissingTracts = append(c.MissingTracts, t)
	}
	sort.Strings(c.MissingTracts)
	return c, nil
}
