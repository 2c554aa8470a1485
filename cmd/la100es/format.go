package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/ericdfournier/la100es/pkg/inference"
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/pipeline"
	"github.com/ericdfournier/la100es/pkg/stats"
	"github.com/ericdfournier/la100es/pkg/validation"
)

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, res := range r.Warnings {
			printResult(w, res)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(w io.Writer, res validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", res.Level, res.Message)
	if res.Path != "" {
		if res.ActualValue != nil {
			fmt.Fprintf(w, "    -> %s = %v\n", res.Path, res.ActualValue)
		} else {
			fmt.Fprintf(w, "    -> %s\n", res.Path)
		}
	}
	if res.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", res.Expected)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printRunHeader(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Run %s\n", res.RunID)
	fmt.Fprintf(w, "  sector:          %s (%s)\n", res.Sector, res.TableVersion)
	fmt.Fprintf(w, "  parcels:         %d\n", len(res.Parcels))
	fmt.Fprintf(w, "  seed:            %d\n", res.Seed)
	fmt.Fprintf(w, "  reference year:  %d\n", res.ReferenceYear)
	fmt.Fprintln(w)
}

func printCohortTable(w io.Writer, rows []stats.CohortStats) {
	fmt.Fprintln(w, "Cohorts")
	fmt.Fprintln(w, "=======")
	fmt.Fprintf(w, "%-8s %8s %8s %10s %10s %10s %8s %10s %8s\n",
		"Cohort", "Parcels", "Built", "Permitted", "Inferred", "None", "<100A", "100-200A", ">=200A")
	for _, c := range rows {
		fmt.Fprintf(w, "%-8s %8d %8s %9.1f%% %9.1f%% %9.1f%% %8d %10d %8d\n",
			c.Cohort, c.Parcels, formatFloat(c.MeanYearBuilt, 0),
			c.PermittedPct, c.InferredPct, c.NotUpgradedPct,
			c.Capacity.Below100, c.Capacity.From100, c.Capacity.AtLeast200)
	}
	fmt.Fprintln(w)
}

func printDistributions(w io.Writer, d *inference.Distributions) {
	fmt.Fprintln(w, "Upgrade age distributions")
	fmt.Fprintln(w, "=========================")
	fmt.Fprintf(w, "  odds ratio %.3f, correction %s\n", d.OddsRatio, d.Correction)
	fmt.Fprintf(w, "%-8s %6s %8s %8s %8s %8s\n", "Cohort", "N", "Min", "Median", "Mean", "Max")
	for _, c := range parcel.Cohorts {
		s, ok := d.Summaries[c]
		if !ok || s.N == 0 {
			fmt.Fprintf(w, "%-8s %6d %8s %8s %8s %8s\n", c, 0, "-", "-", "-", "-")
			continue
		}
		fmt.Fprintf(w, "%-8s %6d %8.0f %8.1f %8.1f %8.0f\n", c, s.N, s.Min, s.Median, s.Mean, s.Max)
	}
	fmt.Fprintln(w)
}

// printAreaTable lists the top areas by parcel count.
func printAreaTable(w io.Writer, rows []stats.AreaStats, top int) {
	sorted := append([]stats.AreaStats(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Parcels > sorted[j].Parcels })
	if top > 0 && len(sorted) > top {
		sorted = sorted[:top]
	}

	fmt.Fprintf(w, "Areas (%d of %d)\n", len(sorted), len(rows))
	fmt.Fprintln(w, "=====")
	fmt.Fprintf(w, "%-24s %8s %9s %10s %10s %8s %9s %4s\n",
		"Area", "Parcels", "Upgraded", "As-built", "Existing", "Delta", "Change", "DAC")
	for _, a := range sorted {
		dac := ""
		if a.Disadvantaged {
			dac = "yes"
		}
		fmt.Fprintf(w, "%-24s %8d %8.1f%% %10s %10s %8s %8s%% %4s\n",
			truncate(a.Area, 24), a.Parcels, a.UpgradeFreqPct,
			formatFloat(a.MeanAsBuilt, 1), formatFloat(a.MeanExisting, 1),
			formatFloat(a.Delta, 1), formatFloat(a.PctChange, 1), dac)
	}
}

func formatFloat(f parcel.Float, prec int) string {
	if !f.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, f.V)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
