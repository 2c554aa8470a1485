// Package inference backfills unpermitted panel upgrades. For each cohort it
// builds the empirical distribution of building age at permitted upgrade,
// then draws a seeded Bernoulli outcome per unpermitted parcel with the
// probability the distribution assigns to the parcel's age.
package inference

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/sector"
	"github.com/ericdfournier/la100es/pkg/upgrade"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed uint64 = 12345678

// Correction selects the odds-ratio rescaling applied to upgrade
// probabilities.
type Correction string

const (
	// CorrectionNone leaves probabilities as evaluated.
	CorrectionNone Correction = "none"
	// CorrectionDisadvantaged divides disadvantaged-cohort probabilities by
	// the ratio of non-disadvantaged to disadvantaged permitted upgrades.
	CorrectionDisadvantaged Correction = "disadvantaged"
)

// ParseCorrection validates a correction name. Empty selects the default.
func ParseCorrection(s string) (Correction, error) {
	switch Correction(s) {
	case "":
		return CorrectionDisadvantaged, nil
	case CorrectionNone, CorrectionDisadvantaged:
		return Correction(s), nil
	}
	return "", fmt.Errorf("odds ratio correction must be %q or %q, got %q", CorrectionNone, CorrectionDisadvantaged, s)
}

// Options controls one inference pass.
type Options struct {
	Seed uint64
	// ReferenceYear is the year parcel ages are measured at. Zero selects
	// the earliest permit issue year in the batch.
	ReferenceYear int
	Correction    Correction
}

// Distributions holds both cohort distributions for a run.
type Distributions struct {
	ReferenceYear int                       `json:"reference_year"`
	OddsRatio     float64                   `json:"odds_ratio"`
	Correction    Correction                `json:"correction"`
	Cohorts       map[parcel.Cohort]*ECDF   `json:"cohorts"`
	Summaries     map[parcel.Cohort]Summary `json:"summaries"`
}

// CohortCounts tallies one cohort's inference outcomes.
type CohortCounts struct {
	Eligible int `json:"eligible"`
	Inferred int `json:"inferred"`
}

// Result summarizes one inference pass.
type Result struct {
	Distributions *Distributions                  `json:"distributions"`
	Counts        map[parcel.Cohort]*CohortCounts `json:"counts"`
	Skipped       int                             `json:"skipped"`
}

// BuildDistributions builds one age distribution per cohort from parcels
// flagged as permitted upgrades with a known age at upgrade.
func BuildDistributions(parcels []*parcel.Parcel) map[parcel.Cohort]*ECDF {
	ages := make(map[parcel.Cohort][]float64, len(parcel.Cohorts))
	for _, p := range parcels {
		if !p.PermittedUpgrade || !p.UpgradeAge.Valid {
			continue
		}
		age := p.UpgradeAge.V
		if age < 0 {
			age = 0
		}
		ages[p.Cohort()] = append(ages[p.Cohort()], age)
	}
	out := make(map[parcel.Cohort]*ECDF, len(parcel.Cohorts))
	for _, c := range parcel.Cohorts {
		out[c] = NewECDF(c, ages[c])
	}
	return out
}

// OddsRatio returns the ratio of non-disadvantaged to disadvantaged
// permitted upgrades. It is 1 when either count is zero.
func OddsRatio(parcels []*parcel.Parcel) float64 {
	var dac, non int
	for _, p := range parcels {
		if !p.PermittedUpgrade {
			continue
		}
		if p.Disadvantaged {
			dac++
		} else {
			non++
		}
	}
	if dac == 0 || non == 0 {
		return 1
	}
	return float64(non) / float64(dac)
}

// Eligible reports whether a parcel takes part in inference: not a
// permitted upgrade, with a known construction year and as-built rating.
func Eligible(p *parcel.Parcel) bool {
	return !p.PermittedUpgrade && p.HasYear() && p.AsBuilt.Valid
}

// InferUnpermittedUpgrades draws an upgrade outcome for every eligible
// parcel and raises the existing rating of those drawn one rung above
// as-built. Parcels are visited in ID order from a generator seeded once,
// so the outcome does not depend on input order. PanelUpgrade is set on
// every parcel.
func InferUnpermittedUpgrades(parcels []*parcel.Parcel, cfg *sector.Config, opts Options) (*Result, error) {
	if opts.Correction == "" {
		opts.Correction = CorrectionDisadvantaged
	}
	refYear := opts.ReferenceYear
	if refYear <= 0 {
		refYear = parcel.EarliestPermitYear(parcels)
	}

	dists := &Distributions{
		ReferenceYear: refYear,
		OddsRatio:     OddsRatio(parcels),
		Correction:    opts.Correction,
		Cohorts:       BuildDistributions(parcels),
		Summaries:     make(map[parcel.Cohort]Summary, len(parcel.Cohorts)),
	}
	for c, e := range dists.Cohorts {
		dists.Summaries[c] = e.Summarize()
	}

	res := &Result{
		Distributions: dists,
		Counts:        make(map[parcel.Cohort]*CohortCounts, len(parcel.Cohorts)),
	}
	for _, c := range parcel.Cohorts {
		res.Counts[c] = &CohortCounts{}
	}

	eligible := make([]*parcel.Parcel, 0, len(parcels))
	for _, p := range parcels {
		p.InferredUpgrade = false
		if Eligible(p) {
			eligible = append(eligible, p)
		} else if !p.PermittedUpgrade {
			res.Skipped++
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })

	for _, p := range eligible {
		if dists.Cohorts[p.Cohort()].N() == 0 {
			return nil, &parcel.InsufficientCohortDataError{Cohort: p.Cohort()}
		}
	}
	if len(eligible) > 0 && refYear <= 0 {
		return nil, fmt.Errorf("no reference year: set one explicitly or supply dated permits")
	}

	src := rand.NewPCG(opts.Seed, opts.Seed)
	for _, p := range eligible {
		cohort := p.Cohort()
		res.Counts[cohort].Eligible++

		age, _ := p.AgeAt(refYear)
		prob, err := dists.Cohorts[cohort].Eval(float64(age))
		if err != nil {
			return nil, err
		}
		if opts.Correction == CorrectionDisadvantaged && cohort == parcel.CohortDAC {
			prob /= dists.OddsRatio
		}
		prob = clamp01(prob)

		draw := distuv.Bernoulli{P: prob, Src: src}
		if draw.Rand() != 1 {
			continue
		}
		next, err := upgrade.NextRung(p.AsBuilt, cfg)
		if err != nil {
			return nil, err
		}
		p.Existing = parcel.Known(next)
		p.InferredUpgrade = true
		res.Counts[cohort].Inferred++
	}

	for _, p := range parcels {
		p.PanelUpgrade = p.PermittedUpgrade || p.InferredUpgrade
	}
	return res, nil
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
