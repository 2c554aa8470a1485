// Package stats rolls enriched parcels up to area and cohort summaries.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ericdfournier/la100es/pkg/parcel"
)

// DisadvantagedAreaShare is the share of disadvantaged parcels at which an
// area is reported as disadvantaged.
const DisadvantagedAreaShare = 0.5

// BoundaryLayer assigns parcels to reporting areas. ok is false for parcels
// outside every area.
type BoundaryLayer interface {
	AreaOf(p *parcel.Parcel) (area string, ok bool)
}

// TractLayer groups parcels by census tract.
type TractLayer struct{}

func (TractLayer) AreaOf(p *parcel.Parcel) (string, bool) {
	return p.CensusTract, p.CensusTract != ""
}

// MapLayer groups parcels by a census tract to area lookup.
type MapLayer map[string]string

func (m MapLayer) AreaOf(p *parcel.Parcel) (string, bool) {
	a, ok := m[p.CensusTract]
	return a, ok && a != ""
}

// AreaStats is the change summary for one area.
type AreaStats struct {
	Area           string       `json:"area"`
	Parcels        int          `json:"parcels"`
	Upgraded       int          `json:"upgraded"`
	Permitted      int          `json:"permitted"`
	Inferred       int          `json:"inferred"`
	UpgradeFreqPct float64      `json:"upgrade_freq_pct"`
	MeanAsBuilt    parcel.Float `json:"mean_as_built"`
	MeanExisting   parcel.Float `json:"mean_existing"`
	Delta          parcel.Float `json:"delta"`
	// PctChange is null when the as-built mean is zero or missing.
	PctChange     parcel.Float `json:"pct_change"`
	DACShare      float64      `json:"dac_share"`
	Disadvantaged bool         `json:"disadvantaged"`
}

type areaAcc struct {
	stats    AreaStats
	asBuilt  []float64
	existing []float64
	dac      int
}

// Summarize groups parcels by area and computes per-area means and change.
// Nulls are left out of the means. Rows are sorted by area; unassigned
// counts the parcels the layer placed in no area.
func Summarize(parcels []*parcel.Parcel, layer BoundaryLayer) (rows []AreaStats, unassigned int) {
	accs := make(map[string]*areaAcc)
	for _, p := range parcels {
		area, ok := layer.AreaOf(p)
		if !ok {
			unassigned++
			continue
		}
		a := accs[area]
		if a == nil {
			a = &areaAcc{stats: AreaStats{Area: area}}
			accs[area] = a
		}
		a.stats.Parcels++
		if p.PanelUpgrade {
			a.stats.Upgraded++
		}
		if p.PermittedUpgrade {
			a.stats.Permitted++
		}
		if p.InferredUpgrade {
			a.stats.Inferred++
		}
		if p.Disadvantaged {
			a.dac++
		}
		if p.AsBuilt.Valid {
			a.asBuilt = append(a.asBuilt, p.AsBuilt.V)
		}
		if p.Existing.Valid {
			a.existing = append(a.existing, p.Existing.V)
		}
	}

	rows = make([]AreaStats, 0, len(accs))
	for _, a := range accs {
		s := a.stats
		s.UpgradeFreqPct = Pct(s.Upgraded, s.Parcels)
		s.MeanAsBuilt = mean(a.asBuilt)
		s.MeanExisting = mean(a.existing)
		s.Delta, s.PctChange = Change(s.MeanAsBuilt, s.MeanExisting)
		s.DACShare = float64(a.dac) / float64(s.Parcels)
		s.Disadvantaged = s.DACShare >= DisadvantagedAreaShare
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Area < rows[j].Area })
	return rows, unassigned
}

// Change returns the absolute and percent change from the as-built mean to
// the existing mean. Percent change is null when the as-built mean is zero
// or either mean is missing.
func Change(asBuilt, existing parcel.Float) (delta, pct parcel.Float) {
	if !asBuilt.Valid || !existing.Valid {
		return parcel.Null, parcel.Null
	}
	delta = parcel.Known(existing.V - asBuilt.V)
	if asBuilt.V == 0 {
		return delta, parcel.Null
	}
	return delta, parcel.Known(delta.V / asBuilt.V * 100)
}

// Pct returns n as a percentage of total, or 0 for an empty total.
func Pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func mean(x []float64) parcel.Float {
	if len(x) == 0 {
		return parcel.Null
	}
	return parcel.Known(stat.Mean(x, nil))
}
