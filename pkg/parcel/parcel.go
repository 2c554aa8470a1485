// Package parcel holds the per-building record that every pipeline stage
// enriches in place, along with the permit records attached to it.
package parcel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sector is the residential building sector a parcel belongs to.
type Sector string

const (
	SingleFamily Sector = "single_family"
	MultiFamily  Sector = "multi_family"
)

// ParseSector normalizes a sector tag. Hyphens and case are tolerated
// ("Single-Family" parses as single_family).
func ParseSector(s string) (Sector, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch Sector(norm) {
	case SingleFamily, MultiFamily:
		return Sector(norm), nil
	}
	return "", &InvalidSectorError{Sector: s}
}

// Cohort is the disadvantaged-community grouping used by the age model.
type Cohort string

const (
	CohortDAC    Cohort = "DAC"
	CohortNonDAC Cohort = "Non-DAC"
)

// Cohorts lists both cohorts in reporting order.
var Cohorts = []Cohort{CohortNonDAC, CohortDAC}

// Float is a nullable numeric value. The zero value is null.
type Float struct {
	V     float64
	Valid bool
}

// Known wraps a present value.
func Known(v float64) Float { return Float{V: v, Valid: true} }

// Null is the missing value.
var Null = Float{}

func (f Float) String() string {
	if !f.Valid {
		return "null"
	}
	return strconv.FormatFloat(f.V, 'f', -1, 64)
}

// MarshalJSON writes null for missing values.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.V)
}

// UnmarshalJSON accepts a number or null.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Null
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parcel: decoding nullable number: %w", err)
	}
	*f = Known(v)
	return nil
}

// Permit is one permit record attached to a parcel. Only the fields the
// classifier and the age model read are carried.
type Permit struct {
	Description  string `json:"description"`
	IssueYear    int    `json:"issue_year,omitempty"` // 0 when the issue date is unknown
	PanelRelated bool   `json:"panel_related"`
}

// Parcel is one residential building. Input fields are set at import; the
// rating and upgrade fields are filled by the pipeline passes.
type Parcel struct {
	ID            string   `json:"parcel_id"`
	Sector        Sector   `json:"sector"`
	CensusTract   string   `json:"census_tract"`
	YearBuilt     int      `json:"year_built,omitempty"` // 0 when unknown
	BuildingSqft  Float    `json:"building_sqft"`
	AvgUnitSqft   Float    `json:"avg_unit_sqft"`
	Units         int      `json:"units"`
	DACScore      Float    `json:"dac_score"`
	Disadvantaged bool     `json:"disadvantaged"`
	Permits       []Permit `json:"permits,omitempty"`

	AsBuilt          Float `json:"panel_size_as_built"`
	Existing         Float `json:"panel_size_existing"`
	PermittedUpgrade bool  `json:"permitted_panel_upgrade"`
	InferredUpgrade  bool  `json:"inferred_panel_upgrade"`
	PanelUpgrade     bool  `json:"panel_upgrade"`
	UpgradeYear      int   `json:"upgrade_year,omitempty"`
	UpgradeAge       Float `json:"upgrade_age"`
}

// HasYear reports whether the construction year is known.
func (p *Parcel) HasYear() bool { return p.YearBuilt > 0 }

// AgeAt returns the building age at the given year, clamped at zero.
// ok is false when either year is unknown.
func (p *Parcel) AgeAt(year int) (age int, ok bool) {
	if !p.HasYear() || year <= 0 {
		return 0, false
	}
	age = year - p.YearBuilt
	if age < 0 {
		age = 0
	}
	return age, true
}

// Cohort returns the parcel's disadvantaged-community cohort.
func (p *Parcel) Cohort() Cohort {
	if p.Disadvantaged {
		return CohortDAC
	}
	return CohortNonDAC
}

// EarliestPermitYear returns the smallest known permit issue year across the
// batch, or 0 when no permit carries an issue date.
func EarliestPermitYear(parcels []*Parcel) int {
	earliest := 0
	for _, p := range parcels {
		for _, pm := range p.Permits {
			if pm.IssueYear <= 0 {
				continue
			}
			if earliest == 0 || pm.IssueYear < earliest {
				earliest = pm.IssueYear
			}
		}
	}
	return earliest
}
