package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ericdfournier/la100es/internal/logging"
	"github.com/ericdfournier/la100es/internal/server"
	"github.com/ericdfournier/la100es/internal/source"
	"github.com/ericdfournier/la100es/pkg/config"
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/pipeline"
	"github.com/ericdfournier/la100es/pkg/sector"
	"github.com/ericdfournier/la100es/pkg/stats"
	"github.com/ericdfournier/la100es/pkg/validation"
)

// project is a loaded analysis definition with its inputs.
type project struct {
	analysis *config.Analysis
	log      zerolog.Logger
	parcels  []*parcel.Parcel
	scores   map[string]float64
	layer    stats.BoundaryLayer
	report   *validation.Report
}

// loadAndValidate loads the analysis definition, applies flag overrides
// and runs config validation.
func loadAndValidate(projectPath string, g *globalFlags) (*project, error) {
	a, err := config.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.seed != 0 {
		a.Seed = g.seed
	}
	if g.logLevel != "" {
		a.Log.Level = g.logLevel
	}
	if g.pretty {
		a.Log.Pretty = true
	}

	p := &project{
		analysis: a,
		log:      zerolog.Nop(),
		report:   validation.ValidateConfig(a),
	}
	if !p.report.Valid {
		return p, nil
	}
	p.log, err = logging.New(os.Stderr, a.Log.Level, a.Log.Pretty)
	if err != nil {
		return nil, err
	}
	p.log = p.log.With().Str("analysis", a.Name).Logger()
	return p, nil
}

// loadInputs reads the parcel dataset, tract scores and boundary layer.
func (p *project) loadInputs(ctx context.Context, g *globalFlags) error {
	a := p.analysis
	s, err := parcel.ParseSector(a.Sector)
	if err != nil {
		return err
	}
	var progress io.Writer
	if g.progress {
		progress = os.Stderr
	}
	opts := source.Options{Sector: s, Progress: progress}

	var dataReport *validation.Report
	if db := a.Inputs.Database; db != nil {
		pg, err := source.OpenPostgres(ctx, db)
		if err != nil {
			return err
		}
		defer pg.Close()
		p.parcels, dataReport, err = pg.LoadParcels(ctx, db.Query, opts)
		if err != nil {
			return fmt.Errorf("loading parcels: %w", err)
		}
	} else {
		p.parcels, dataReport, err = source.LoadParcelsCSV(a.Resolve(a.Inputs.Parcels), opts)
		if err != nil {
			return fmt.Errorf("loading parcels: %w", err)
		}
	}
	p.report.Merge(dataReport)
	p.log.Info().Int("parcels", len(p.parcels)).Msg("parcels loaded")

	if a.Inputs.TractScores != "" {
		p.scores, err = source.LoadTractScores(a.Resolve(a.Inputs.TractScores), progress)
		if err != nil {
			return fmt.Errorf("loading tract scores: %w", err)
		}
		p.log.Info().Int("tracts", len(p.scores)).Msg("tract scores loaded")
	}

	if a.AreaKey == config.AreaBoundaries {
		layer, err := source.LoadBoundaries(a.Resolve(a.Inputs.Boundaries), progress)
		if err != nil {
			return fmt.Errorf("loading boundaries: %w", err)
		}
		p.layer = layer
		p.log.Info().Int("tracts", len(layer)).Msg("boundaries loaded")
	}
	return nil
}

// execute loads a project and runs the pipeline over it. Config errors are
// printed before returning.
func execute(ctx context.Context, projectPath string, g *globalFlags) (*project, *pipeline.Result, error) {
	p, err := loadAndValidate(projectPath, g)
	if err != nil {
		return nil, nil, err
	}
	if !p.report.Valid {
		printValidationReport(os.Stderr, p.report)
		return nil, nil, errors.New("analysis definition has validation errors")
	}
	if err := p.loadInputs(ctx, g); err != nil {
		return nil, nil, err
	}

	opts, err := pipeline.OptionsFrom(p.analysis)
	if err != nil {
		return nil, nil, err
	}
	opts.TractScores = p.scores
	opts.Layer = p.layer
	opts.Logger = p.log

	res, err := pipeline.Run(p.parcels, opts)
	if err != nil {
		return nil, nil, err
	}
	res.Validation.Merge(p.report)
	return p, res, nil
}

func runRun(ctx context.Context, projectPath string, g *globalFlags) error {
	_, res, err := execute(ctx, projectPath, g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runValidate(ctx context.Context, projectPath string, g *globalFlags) error {
	p, err := loadAndValidate(projectPath, g)
	if err != nil {
		return err
	}

	if p.report.Valid {
		if err := p.loadInputs(ctx, g); err != nil {
			return err
		}
		cfg, err := sector.Parse(p.analysis.Sector)
		if err != nil {
			return err
		}
		p.report.Merge(validation.ValidateParcels(p.parcels, cfg, p.analysis.FixedReferenceYear()))
	}

	printValidationReport(os.Stdout, p.report)

	if !p.report.Valid {
		os.Exit(1)
	}
	return nil
}

func runSummary(ctx context.Context, projectPath string, g *globalFlags, top int) error {
	_, res, err := execute(ctx, projectPath, g)
	if err != nil {
		return err
	}
	printRunHeader(os.Stdout, res)
	printCohortTable(os.Stdout, res.Cohorts)
	printDistributions(os.Stdout, res.Distributions)
	printAreaTable(os.Stdout, res.Areas, top)
	if len(res.Validation.Warnings) > 0 || len(res.Validation.Info) > 0 {
		fmt.Println()
		printValidationReport(os.Stdout, res.Validation)
	}
	return nil
}

func runServe(ctx context.Context, projectPath string, g *globalFlags, port int) error {
	p, res, err := execute(ctx, projectPath, g)
	if err != nil {
		return err
	}
	if port == 0 {
		port = p.analysis.Server.Port
	}
	return server.New(res, port, p.log).Start()
}
