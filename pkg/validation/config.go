package validation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ericdfournier/la100es/pkg/config"
	"github.com/ericdfournier/la100es/pkg/inference"
	"github.com/ericdfournier/la100es/pkg/sector"
)

// ValidateConfig checks an analysis definition before any data is read.
func ValidateConfig(a *config.Analysis) *Report {
	r := NewReport()

	validateSector(a, r)
	validateReferenceYear(a, r)
	validateModel(a, r)
	validateInputs(a, r)
	validateOutputs(a, r)

	return r
}

func validateSector(a *config.Analysis, r *Report) {
	if _, err := sector.Parse(a.Sector); err != nil {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     err.Error(),
			Path:        "sector",
			ActualValue: a.Sector,
			Expected:    "single_family | multi_family",
		})
	}
}

func validateReferenceYear(a *config.Analysis, r *Report) {
	ry := a.ReferenceYear
	switch ry.Mode {
	case config.ReferenceEarliestPermit:
		if ry.Year != 0 {
			r.AddWarning(Result{
				Level:       LevelConfig,
				Message:     "reference_year.year is ignored in earliest_permit mode",
				Path:        "reference_year.year",
				ActualValue: ry.Year,
				Suggestions: []string{"Set reference_year.mode to fixed to measure ages at this year"},
			})
		}
	case config.ReferenceFixed:
		if ry.Year < 1850 || ry.Year > 2100 {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     fmt.Sprintf("reference_year.year %d is outside 1850-2100", ry.Year),
				Path:        "reference_year.year",
				ActualValue: ry.Year,
				Expected:    "1850-2100",
			})
		}
	default:
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("unknown reference_year.mode %q", ry.Mode),
			Path:        "reference_year.mode",
			ActualValue: ry.Mode,
			Expected:    "earliest_permit | fixed",
		})
	}
}

func validateModel(a *config.Analysis, r *Report) {
	if t := a.Threshold(); t <= 0 || t > 100 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("dac_threshold %.1f must be a percentile above 0 and at most 100", t),
			Path:        "dac_threshold",
			ActualValue: t,
			Expected:    "(0, 100]",
			Suggestions: []string{"Omit dac_threshold to use 75"},
		})
	}
	if _, err := inference.ParseCorrection(a.OddsRatioCorrection); err != nil {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     err.Error(),
			Path:        "odds_ratio_correction",
			ActualValue: a.OddsRatioCorrection,
		})
	}
	if a.OddsRatioCorrection == string(inference.CorrectionDisadvantaged) {
		r.AddInfo(Result{
			Level:   LevelConfig,
			Message: "odds ratio correction applies to the disadvantaged cohort only",
			Path:    "odds_ratio_correction",
		})
	}
}

func validateInputs(a *config.Analysis, r *Report) {
	in := a.Inputs
	switch {
	case in.Parcels == "" && in.Database == nil:
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "no parcel source configured",
			Path:        "inputs",
			Suggestions: []string{"Set inputs.parcels to a CSV path or configure inputs.database"},
		})
	case in.Parcels != "" && in.Database != nil:
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "inputs.parcels and inputs.database are mutually exclusive",
			Path:    "inputs",
		})
	case in.Database != nil && in.Database.Query == "":
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "inputs.database.query must not be empty",
			Path:    "inputs.database.query",
		})
	}

	if in.TractScores == "" {
		r.AddWarning(Result{
			Level:   LevelConfig,
			Message: "no tract score table; cohorts come from per-parcel scores or flags",
			Path:    "inputs.tract_scores",
		})
	}

	switch a.AreaKey {
	case config.AreaCensusTract:
	case config.AreaBoundaries:
		if in.Boundaries == "" {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     "area_key boundaries requires inputs.boundaries",
				Path:        "inputs.boundaries",
				Suggestions: []string{"Point inputs.boundaries at a census_tract,area CSV or YAML file", "Use area_key: census_tract"},
			})
		}
	default:
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("unknown area_key %q", a.AreaKey),
			Path:        "area_key",
			ActualValue: a.AreaKey,
			Expected:    "census_tract | boundaries",
		})
	}
}

func validateOutputs(a *config.Analysis, r *Report) {
	if _, err := zerolog.ParseLevel(a.Log.Level); err != nil {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("unknown log level %q", a.Log.Level),
			Path:        "log.level",
			ActualValue: a.Log.Level,
			Expected:    "trace | debug | info | warn | error",
		})
	}
	if a.Server.Port <= 0 || a.Server.Port > 65535 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("server.port %d is not a valid TCP port", a.Server.Port),
			Path:        "server.port",
			ActualValue: a.Server.Port,
			Expected:    "1-65535",
		})
	}
}
