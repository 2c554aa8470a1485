// Package pipeline runs the inference passes in order over one parcel
// batch. A run either completes every stage or returns no result.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ericdfournier/la100es/internal/logging"
	"github.com/ericdfournier/la100es/pkg/asbuilt"
	"github.com/ericdfournier/la100es/pkg/cohort"
	"github.com/ericdfournier/la100es/pkg/config"
	"github.com/ericdfournier/la100es/pkg/inference"
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/permit"
	"github.com/ericdfournier/la100es/pkg/sector"
	"github.com/ericdfournier/la100es/pkg/stats"
	"github.com/ericdfournier/la100es/pkg/upgrade"
	"github.com/ericdfournier/la100es/pkg/validation"
)

// Stage names, in run order.
const (
	StageValidate          = "validate"
	StageCohort            = "cohort"
	StageAsBuilt           = "as_built"
	StagePermittedUpgrades = "permitted_upgrades"
	StageInferredUpgrades  = "inferred_upgrades"
	StageSummary           = "summary"
)

// StageError reports the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Options controls one run.
type Options struct {
	Sector        parcel.Sector
	Seed          uint64
	ReferenceYear int // 0 for the earliest permit year
	Correction    inference.Correction
	DACThreshold  float64 // 0 selects cohort.DefaultThreshold; 0 is never a valid threshold
	// TractScores maps census tracts to burden score percentiles. Nil uses
	// the scores or flags carried on the parcels.
	TractScores map[string]float64
	// Layer groups parcels for area statistics. Nil groups by tract.
	Layer  stats.BoundaryLayer
	Logger zerolog.Logger
}

// OptionsFrom builds run options from an analysis definition. Tract scores,
// the boundary layer and the logger are left for the caller.
func OptionsFrom(a *config.Analysis) (Options, error) {
	s, err := parcel.ParseSector(a.Sector)
	if err != nil {
		return Options{}, err
	}
	corr, err := inference.ParseCorrection(a.OddsRatioCorrection)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Sector:        s,
		Seed:          a.Seed,
		ReferenceYear: a.FixedReferenceYear(),
		Correction:    corr,
		DACThreshold:  a.Threshold(),
		Logger:        zerolog.Nop(),
	}, nil
}

// StageCounts collects per-stage tallies for the run report.
type StageCounts struct {
	Cohort    cohort.Counts                             `json:"cohort"`
	AsBuilt   asbuilt.Counts                            `json:"as_built"`
	Permitted upgrade.Counts                            `json:"permitted_upgrades"`
	Inferred  map[parcel.Cohort]*inference.CohortCounts `json:"inferred_upgrades"`
}

// Result is the complete output of a successful run.
type Result struct {
	RunID         string                   `json:"run_id"`
	Sector        parcel.Sector            `json:"sector"`
	TableVersion  string                   `json:"table_version"`
	Seed          uint64                   `json:"seed"`
	ReferenceYear int                      `json:"reference_year"`
	Parcels       []*parcel.Parcel         `json:"parcels"`
	Areas         []stats.AreaStats        `json:"areas"`
	Cohorts       []stats.CohortStats      `json:"cohorts"`
	Distributions *inference.Distributions `json:"distributions"`
	Counts        StageCounts              `json:"counts"`
	Validation    *validation.Report       `json:"validation"`
}

// Parcel returns the enriched parcel with the given ID.
func (r *Result) Parcel(id string) (*parcel.Parcel, bool) {
	for _, p := range r.Parcels {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Run enriches a copy of the input parcels and summarizes them. The input
// slice is never modified, so a failed run leaves nothing half-enriched.
func Run(input []*parcel.Parcel, opts Options) (*Result, error) {
	cfg, err := sector.For(opts.Sector)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	if opts.Seed == 0 {
		opts.Seed = inference.DefaultSeed
	}
	if opts.DACThreshold == 0 {
		opts.DACThreshold = cohort.DefaultThreshold
	}
	if opts.Layer == nil {
		opts.Layer = stats.TractLayer{}
	}

	res := &Result{
		RunID:        uuid.NewString(),
		Sector:       cfg.Sector,
		TableVersion: cfg.Version,
		Seed:         opts.Seed,
	}
	log := logging.WithRun(opts.Logger, res.RunID)
	log.Info().Str("sector", string(cfg.Sector)).Int("parcels", len(input)).Uint64("seed", opts.Seed).Msg("run started")

	if err := cfg.Check(); err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	report := validation.ValidateParcels(input, cfg, opts.ReferenceYear)
	if err := report.Err(); err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	res.Validation = report

	parcels := clone(input)

	// cohort
	res.Counts.Cohort, err = cohort.AssignDisadvantaged(parcels, opts.TractScores, opts.DACThreshold)
	if err != nil {
		return nil, &StageError{Stage: StageCohort, Err: err}
	}
	if n := len(res.Counts.Cohort.MissingTracts); n > 0 {
		report.AddWarning(validation.Result{
			Level:       validation.LevelRun,
			Message:     fmt.Sprintf("%d tracts have no burden score", n),
			Path:        "tract_scores",
			Count:       n,
			ActualValue: sample(res.Counts.Cohort.MissingTracts, 5),
		})
	}
	logging.WithStage(log, StageCohort).Info().
		Int("disadvantaged", res.Counts.Cohort.Disadvantaged).
		Int("unscored", res.Counts.Cohort.Unscored).
		Msg("cohorts assigned")

	// as-built
	res.Counts.AsBuilt = asbuilt.Assign(parcels, cfg)
	logging.WithStage(log, StageAsBuilt).Info().
		Int("matched", res.Counts.AsBuilt.Matched).
		Int("no_year", res.Counts.AsBuilt.NoYear).
		Int("no_size", res.Counts.AsBuilt.NoSize).
		Msg("as-built ratings assigned")

	// permitted upgrades
	classified := permit.ClassifyAll(parcels, cfg)
	res.Counts.Permitted, err = upgrade.AssignExisting(parcels, classified, cfg)
	if err != nil {
		return nil, &StageError{Stage: StagePermittedUpgrades, Err: err}
	}
	if n := res.Counts.Permitted.NullAsBuiltSeen; n > 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelRun,
			Message: fmt.Sprintf("%d parcels with panel permits have no as-built rating and cannot count as upgrades", n),
			Count:   n,
		})
	}
	logging.WithStage(log, StagePermittedUpgrades).Info().
		Int("with_panel_work", res.Counts.Permitted.WithPanelWork).
		Int("permitted", res.Counts.Permitted.Permitted).
		Msg("permitted upgrades resolved")

	// inferred upgrades
	inf, err := inference.InferUnpermittedUpgrades(parcels, cfg, inference.Options{
		Seed:          opts.Seed,
		ReferenceYear: opts.ReferenceYear,
		Correction:    opts.Correction,
	})
	if err != nil {
		return nil, &StageError{Stage: StageInferredUpgrades, Err: err}
	}
	res.Distributions = inf.Distributions
	res.ReferenceYear = inf.Distributions.ReferenceYear
	res.Counts.Inferred = inf.Counts
	ev := logging.WithStage(log, StageInferredUpgrades).Info().
		Int("reference_year", res.ReferenceYear).
		Float64("odds_ratio", inf.Distributions.OddsRatio)
	for _, c := range parcel.Cohorts {
		ev = ev.Int(string(c)+"_inferred", inf.Counts[c].Inferred)
	}
	ev.Msg("unpermitted upgrades inferred")

	// summary
	var unassigned int
	res.Areas, unassigned = stats.Summarize(parcels, opts.Layer)
	res.Cohorts = stats.SummarizeCohorts(parcels)
	if unassigned > 0 {
		report.AddWarning(validation.Result{
			Level:   validation.LevelRun,
			Message: fmt.Sprintf("%d parcels fall outside every reporting area", unassigned),
			Count:   unassigned,
		})
	}
	if len(res.Areas) == 0 {
		return nil, &StageError{Stage: StageSummary, Err: fmt.Errorf("no parcel falls inside a reporting area")}
	}
	logging.WithStage(log, StageSummary).Info().Int("areas", len(res.Areas)).Msg("areas summarized")

	res.Parcels = parcels
	log.Info().Str("validation", report.Summary).Msg("run finished")
	return res, nil
}

func clone(in []*parcel.Parcel) []*parcel.Parcel {
	out := make([]*parcel.Parcel, len(in))
	for i, p := range in {
		c := *p
		c.Permits = append([]parcel.Permit(nil), p.Permits...)
		out[i] = &c
	}
	return out
}

func sample(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
