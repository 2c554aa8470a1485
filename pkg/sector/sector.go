// Package sector carries the fixed per-sector domain tables: vintage and
// size bands, the as-built rule table, the amperage scale, and the permit
// vocabulary. Each pipeline stage takes a *Config instead of branching on
// the sector tag.
package sector

import (
	"fmt"
	"math"

	"github.com/ericdfournier/la100es/pkg/parcel"
)

// Band is a named half-open interval [Min, Max).
type Band struct {
	Name string
	Min  float64
	Max  float64
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v < b.Max
}

// Size fields read by the as-built lookup.
const (
	SizeFieldBuildingSqft = "building_sqft"
	SizeFieldAvgUnitSqft  = "avg_unit_sqft"
)

// Config is the complete rule set for one sector.
type Config struct {
	Sector  parcel.Sector
	Version string

	// SizeField names the parcel field the size bands apply to.
	SizeField string

	Vintages []Band
	// Sizes is empty for sectors keyed on vintage alone.
	Sizes []Band
	// Table is indexed [vintage][size]. Vintage-only sectors have a single
	// column.
	Table [][]float64

	Scale Scale

	// Tokens are the amperage figures the permit classifier recognizes.
	Tokens []float64
	// Keywords mark non-amperage panel work (solar, EV charging, AC).
	Keywords []string

	// UnknownAsBuilt stands in for a null as-built rating when stepping a
	// rung for unlabeled panel work.
	UnknownAsBuilt float64
	// OtherWorkFloor is the minimum rating proposed for unlabeled panel work.
	OtherWorkFloor float64
}

// For returns the rule set for a sector.
func For(s parcel.Sector) (*Config, error) {
	switch s {
	case parcel.SingleFamily:
		return singleFamily(), nil
	case parcel.MultiFamily:
		return multiFamily(), nil
	}
	return nil, &parcel.InvalidSectorError{Sector: string(s)}
}

// Parse resolves a raw sector tag to its rule set.
func Parse(tag string) (*Config, error) {
	s, err := parcel.ParseSector(tag)
	if err != nil {
		return nil, err
	}
	return For(s)
}

// SizeOf returns the sector-appropriate size measure for a parcel.
func (c *Config) SizeOf(p *parcel.Parcel) parcel.Float {
	if c.SizeField == SizeFieldAvgUnitSqft {
		return p.AvgUnitSqft
	}
	return p.BuildingSqft
}

// HasSizeBands reports whether the table has a size dimension.
func (c *Config) HasSizeBands() bool { return len(c.Sizes) > 0 }

// VintageIndex returns the index of the vintage band containing year.
func (c *Config) VintageIndex(year int) (int, bool) {
	return bandIndex(c.Vintages, float64(year))
}

// SizeIndex returns the index of the size band containing area.
func (c *Config) SizeIndex(area float64) (int, bool) {
	if !c.HasSizeBands() {
		return 0, true
	}
	return bandIndex(c.Sizes, area)
}

// Cell returns the as-built rating for a vintage and size band pair.
func (c *Config) Cell(vintage, size int) float64 {
	return c.Table[vintage][size]
}

func bandIndex(bands []Band, v float64) (int, bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	for i, b := range bands {
		if b.Contains(v) {
			return i, true
		}
	}
	return 0, false
}

// Check verifies the rule set is internally consistent: bands partition
// their domain without gaps, the table is fully populated, every rating is
// on the scale with a rung above it, and ratings never fall with newer
// vintage or larger size.
func (c *Config) Check() error {
	if err := c.Scale.Check(); err != nil {
		return fmt.Errorf("%s scale: %w", c.Sector, err)
	}
	if err := checkPartition(c.Vintages, math.Inf(-1)); err != nil {
		return fmt.Errorf("%s vintage bands: %w", c.Sector, err)
	}
	cols := 1
	if c.HasSizeBands() {
		if err := checkPartition(c.Sizes, 0); err != nil {
			return fmt.Errorf("%s size bands: %w", c.Sector, err)
		}
		cols = len(c.Sizes)
	}
	if len(c.Table) != len(c.Vintages) {
		return fmt.Errorf("%s table has %d rows, want %d", c.Sector, len(c.Table), len(c.Vintages))
	}
	for i, row := range c.Table {
		if len(row) != cols {
			return fmt.Errorf("%s table row %s has %d cells, want %d", c.Sector, c.Vintages[i].Name, len(row), cols)
		}
		for j, amps := range row {
			if !c.Scale.Contains(amps) {
				return &parcel.UnrecognizedAmperageError{Sector: c.Sector, Amps: amps, Reason: "in rule table is not on the amperage scale"}
			}
			if _, ok := c.Scale.Next(amps); !ok {
				return &parcel.UnrecognizedAmperageError{Sector: c.Sector, Amps: amps, Reason: "in rule table has no next rung"}
			}
			if i > 0 && amps < c.Table[i-1][j] {
				return fmt.Errorf("%s table not monotonic in vintage at %s", c.Sector, c.Vintages[i].Name)
			}
			if j > 0 && amps < row[j-1] {
				return fmt.Errorf("%s table not monotonic in size at %s/%s", c.Sector, c.Vintages[i].Name, c.Sizes[j].Name)
			}
		}
	}
	for _, tok := range c.Tokens {
		if !c.Scale.Contains(tok) {
			return &parcel.UnrecognizedAmperageError{Sector: c.Sector, Amps: tok, Reason: "permit token is not on the amperage scale"}
		}
	}
	for _, v := range []float64{c.UnknownAsBuilt, c.OtherWorkFloor} {
		if !c.Scale.Contains(v) {
			return &parcel.UnrecognizedAmperageError{Sector: c.Sector, Amps: v, Reason: "default rating is not on the amperage scale"}
		}
	}
	return nil
}

func checkPartition(bands []Band, lower float64) error {
	if len(bands) == 0 {
		return fmt.Errorf("no bands")
	}
	if bands[0].Min != lower {
		return fmt.Errorf("%s starts at %v, want %v", bands[0].Name, bands[0].Min, lower)
	}
	for i, b := range bands {
		if b.Min >= b.Max {
			return fmt.Errorf("%s is empty", b.Name)
		}
		if i > 0 && bands[i-1].Max != b.Min {
			return fmt.Errorf("gap between %s and %s", bands[i-1].Name, b.Name)
		}
	}
	if last := bands[len(bands)-1]; !math.IsInf(last.Max, 1) {
		return fmt.Errorf("%s ends at %v, want +Inf", last.Name, last.Max)
	}
	return nil
}
