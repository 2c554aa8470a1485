// Package asbuilt assigns the panel rating a building was most likely
// constructed with, from its vintage and floor area.
package asbuilt

import (
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/sector"
)

// Counts summarizes one as-built pass.
type Counts struct {
	Parcels   int `json:"parcels"`
	Matched   int `json:"matched"`
	NoYear    int `json:"no_year"`
	NoSize    int `json:"no_size"`
	DerivedAU int `json:"derived_avg_unit_sqft"`
}

// AssignAsBuilt resolves the sector's rule set and assigns an as-built
// rating to every parcel.
func AssignAsBuilt(parcels []*parcel.Parcel, s parcel.Sector) (Counts, error) {
	cfg, err := sector.For(s)
	if err != nil {
		return Counts{}, err
	}
	return Assign(parcels, cfg), nil
}

// Assign sets AsBuilt on every parcel, and initializes Existing to the same
// value. Parcels with an unknown year or size resolve to null.
func Assign(parcels []*parcel.Parcel, cfg *sector.Config) Counts {
	c := Counts{Parcels: len(parcels)}
	for _, p := range parcels {
		if cfg.SizeField == sector.SizeFieldAvgUnitSqft && !p.AvgUnitSqft.Valid {
			if au := AverageUnitArea(p); au.Valid {
				p.AvgUnitSqft = au
				c.DerivedAU++
			}
		}

		switch {
		case !p.HasYear():
			c.NoYear++
		case cfg.HasSizeBands() && !cfg.SizeOf(p).Valid:
			c.NoSize++
		}

		p.AsBuilt = Lookup(cfg, p.YearBuilt, cfg.SizeOf(p))
		p.Existing = p.AsBuilt
		if p.AsBuilt.Valid {
			c.Matched++
		}
	}
	return c
}

// Lookup returns the rule-table rating for a construction year and size
// measure. year <= 0 means unknown. The size is ignored for sectors keyed on
// vintage alone.
func Lookup(cfg *sector.Config, year int, size parcel.Float) parcel.Float {
	if year <= 0 {
		return parcel.Null
	}
	vi, ok := cfg.VintageIndex(year)
	if !ok {
		return parcel.Null
	}
	si := 0
	if cfg.HasSizeBands() {
		if !size.Valid {
			return parcel.Null
		}
		si, ok = cfg.SizeIndex(size.V)
		if !ok {
			return parcel.Null
		}
	}
	return parcel.Known(cfg.Cell(vi, si))
}

// AverageUnitArea returns the parcel's average dwelling unit floor area,
// preferring a supplied value and otherwise dividing the building area by
// the unit count.
func AverageUnitArea(p *parcel.Parcel) parcel.Float {
	if p.AvgUnitSqft.Valid {
		return p.AvgUnitSqft
	}
	if !p.BuildingSqft.Valid || p.Units <= 0 {
		return parcel.Null
	}
	return parcel.Known(p.BuildingSqft.V / float64(p.Units))
}
