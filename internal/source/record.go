// Package source reads parcel and permit datasets, tract burden scores and
// reporting boundaries from CSV files and Postgres.
package source

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/validation"
)

// Dataset columns. One row describes a parcel and at most one of its
// permits; parcels with several permits span several rows.
const (
	ColParcelID      = "parcel_id"
	ColSector        = "sector"
	ColCensusTract   = "census_tract"
	ColYearBuilt     = "year_built"
	ColBuildingSqft  = "building_sqft"
	ColAvgUnitSqft   = "avg_unit_sqft"
	ColUnits         = "units"
	ColDACScore      = "dac_score"
	ColDisadvantaged = "disadvantaged"
	ColDescription   = "permit_description"
	ColIssueDate     = "permit_issue_date"
	ColPanelRelated  = "panel_related_permit"
)

// RequiredColumns must be present in every parcel dataset.
var RequiredColumns = []string{ColParcelID, ColCensusTract, ColYearBuilt, ColBuildingSqft}

// Options controls loading.
type Options struct {
	// Sector keeps only rows tagged with this sector. Untagged rows are
	// kept. Empty keeps everything.
	Sector parcel.Sector
	// Progress draws a progress bar on this writer when set.
	Progress io.Writer
}

// Record is one raw dataset row keyed by column name.
type Record map[string]string

func (r Record) get(col string) string { return strings.TrimSpace(r[col]) }

// Assemble merges rows into parcels, one per parcel ID, sorted by ID.
// Conflicting parcel attributes across rows keep the first value and are
// reported as warnings.
func Assemble(records []Record, src string, opts Options) ([]*parcel.Parcel, *validation.Report, error) {
	report := validation.NewReport()
	byID := make(map[string]*parcel.Parcel)
	var skipped, conflicts int

	for i, rec := range records {
		line := i + 2
		id := rec.get(ColParcelID)
		if id == "" {
			return nil, nil, fmt.Errorf("%s row %d: %s is required", src, line, ColParcelID)
		}

		var s parcel.Sector
		if tag := rec.get(ColSector); tag != "" {
			var err error
			s, err = parcel.ParseSector(tag)
			if err != nil {
				return nil, nil, fmt.Errorf("%s row %d: %w", src, line, err)
			}
			if opts.Sector != "" && s != opts.Sector {
				skipped++
				continue
			}
		}

		p, err := parseParcel(rec, s)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", src, line, err)
		}
		pm, hasPermit, err := parsePermit(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", src, line, err)
		}

		if prev, ok := byID[id]; ok {
			if !sameAttributes(prev, p) {
				conflicts++
			}
			p = prev
		} else {
			byID[id] = p
		}
		if hasPermit {
			p.Permits = append(p.Permits, pm)
		}
	}

	out := make([]*parcel.Parcel, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if skipped > 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelDataset,
			Message: fmt.Sprintf("%d rows belong to another sector and were skipped", skipped),
			Path:    ColSector,
			Count:   skipped,
		})
	}
	if conflicts > 0 {
		report.AddWarning(validation.Result{
			Level:       validation.LevelDataset,
			Message:     fmt.Sprintf("%d rows disagree with an earlier row for the same parcel; the first row wins", conflicts),
			Path:        ColParcelID,
			Count:       conflicts,
			Suggestions: []string{"Deduplicate parcel attributes upstream of the permit join"},
		})
	}
	return out, report, nil
}

func parseParcel(rec Record, s parcel.Sector) (*parcel.Parcel, error) {
	p := &parcel.Parcel{
		ID:          rec.get(ColParcelID),
		Sector:      s,
		CensusTract: normalizeTract(rec.get(ColCensusTract)),
	}
	var err error
	if p.YearBuilt, err = parseYear(rec.get(ColYearBuilt)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColYearBuilt, err)
	}
	if p.BuildingSqft, err = parseFloat(rec.get(ColBuildingSqft)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColBuildingSqft, err)
	}
	if p.AvgUnitSqft, err = parseFloat(rec.get(ColAvgUnitSqft)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColAvgUnitSqft, err)
	}
	units, err := parseFloat(rec.get(ColUnits))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ColUnits, err)
	}
	if units.Valid {
		p.Units = int(units.V)
	}
	if p.DACScore, err = parseFloat(rec.get(ColDACScore)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColDACScore, err)
	}
	if p.Disadvantaged, err = parseBool(rec.get(ColDisadvantaged)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColDisadvantaged, err)
	}
	return p, nil
}

func parsePermit(rec Record) (parcel.Permit, bool, error) {
	desc := rec.get(ColDescription)
	date := rec.get(ColIssueDate)
	flag := rec.get(ColPanelRelated)
	if desc == "" && date == "" && flag == "" {
		return parcel.Permit{}, false, nil
	}
	year, err := parseYear(date)
	if err != nil {
		return parcel.Permit{}, false, fmt.Errorf("%s: %w", ColIssueDate, err)
	}
	related, err := parseBool(flag)
	if err != nil {
		return parcel.Permit{}, false, fmt.Errorf("%s: %w", ColPanelRelated, err)
	}
	return parcel.Permit{Description: desc, IssueYear: year, PanelRelated: related}, true, nil
}

func sameAttributes(a, b *parcel.Parcel) bool {
	return a.Sector == b.Sector &&
		a.CensusTract == b.CensusTract &&
		a.YearBuilt == b.YearBuilt &&
		a.BuildingSqft == b.BuildingSqft &&
		a.Units == b.Units
}

// normalizeTract strips a trailing ".0" left by spreadsheet exports.
func normalizeTract(s string) string {
	return strings.TrimSuffix(s, ".0")
}

func isNull(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none", "nat":
		return true
	}
	return false
}

func parseFloat(s string) (parcel.Float, error) {
	if isNull(s) {
		return parcel.Null, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return parcel.Null, fmt.Errorf("invalid number %q", s)
	}
	return parcel.Known(v), nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "01/02/2006", "1/2/2006"}

// parseYear accepts a bare year or a date in one of the common export
// layouts. Null values return 0.
func parseYear(s string) (int, error) {
	if isNull(s) {
		return 0, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 1000 || v > 9999 || v != float64(int(v)) {
			return 0, fmt.Errorf("invalid year %q", s)
		}
		return int(v), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), nil
		}
	}
	return 0, fmt.Errorf("invalid date %q", s)
}

func parseBool(s string) (bool, error) {
	if isNull(s) {
		return false, nil
	}
	switch strings.ToLower(s) {
	case "y", "yes", "dac":
		return true, nil
	case "n", "no", "non-dac":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
