package inference

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ericdfournier/la100es/pkg/parcel"
)

// ECDF is the empirical distribution of building age at permitted upgrade
// for one cohort. It is immutable once built.
type ECDF struct {
	Cohort parcel.Cohort `json:"cohort"`
	// Ages is sorted ascending.
	Ages []float64 `json:"ages"`
}

// NewECDF builds a distribution from a sample of ages. The input slice is
// copied.
func NewECDF(cohort parcel.Cohort, ages []float64) *ECDF {
	x := append([]float64(nil), ages...)
	sort.Float64s(x)
	return &ECDF{Cohort: cohort, Ages: x}
}

// N returns the sample size.
func (e *ECDF) N() int { return len(e.Ages) }

// Eval returns the fraction of the sample at or below age: 0 below the
// smallest observation and 1 at or above the largest.
func (e *ECDF) Eval(age float64) (float64, error) {
	if len(e.Ages) == 0 {
		return 0, &parcel.InsufficientCohortDataError{Cohort: e.Cohort}
	}
	return stat.CDF(age, stat.Empirical, e.Ages, nil), nil
}

// Summary describes a distribution for reports.
type Summary struct {
	Cohort parcel.Cohort `json:"cohort"`
	N      int           `json:"n"`
	Min    float64       `json:"min_age"`
	Median float64       `json:"median_age"`
	Mean   float64       `json:"mean_age"`
	Max    float64       `json:"max_age"`
}

// Summarize returns sample statistics. The zero Summary is returned for an
// empty distribution.
func (e *ECDF) Summarize() Summary {
	s := Summary{Cohort: e.Cohort, N: len(e.Ages)}
	if s.N == 0 {
		return s
	}
	s.Min = e.Ages[0]
	s.Max = e.Ages[s.N-1]
	s.Median = stat.Quantile(0.5, stat.Empirical, e.Ages, nil)
	s.Mean = stat.Mean(e.Ages, nil)
	return s
}
