// Package upgrade raises each parcel's existing panel rating from its
// permit history and flags documented upgrades.
package upgrade

import (
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/permit"
	"github.com/ericdfournier/la100es/pkg/sector"
)

// Counts summarizes one permitted-upgrade pass.
type Counts struct {
	Parcels         int `json:"parcels"`
	WithPanelWork   int `json:"with_panel_work"`
	SizeMatches     int `json:"size_matches"`
	OtherWork       int `json:"other_work"`
	Permitted       int `json:"permitted"`
	NullAsBuiltSeen int `json:"null_as_built_with_panel_work"`
}

// AssignExisting sets Existing, PermittedUpgrade, UpgradeYear and UpgradeAge
// on every parcel. classifications maps parcel IDs to their panel-related
// permit classifications in issue year order, as returned by
// permit.ClassifyAll.
//
// Existing starts at the as-built rating and only ever rises. A parcel is a
// permitted upgrade when its existing rating ends above a known as-built
// rating.
func AssignExisting(parcels []*parcel.Parcel, classifications map[string][]permit.Classification, cfg *sector.Config) (Counts, error) {
	c := Counts{Parcels: len(parcels)}
	for _, p := range parcels {
		p.Existing = p.AsBuilt
		p.PermittedUpgrade = false
		p.UpgradeYear = 0
		p.UpgradeAge = parcel.Null

		cs := classifications[p.ID]
		if len(cs) == 0 {
			continue
		}
		c.WithPanelWork++
		if !p.AsBuilt.Valid {
			c.NullAsBuiltSeen++
		}

		for _, cl := range cs {
			var proposals []float64
			switch cl.Kind {
			case permit.SizeMatch:
				c.SizeMatches++
				for _, k := range cl.Sizes {
					amps, err := proposeSize(p.AsBuilt, k, cfg)
					if err != nil {
						return Counts{}, err
					}
					proposals = append(proposals, amps)
				}
			case permit.OtherPanelWork:
				c.OtherWork++
				amps, err := proposeOther(p.AsBuilt, cfg)
				if err != nil {
					return Counts{}, err
				}
				proposals = append(proposals, amps)
			}

			for _, amps := range proposals {
				if !p.Existing.Valid || amps > p.Existing.V {
					p.Existing = parcel.Known(amps)
				}
				if p.UpgradeYear == 0 && cl.IssueYear > 0 && p.AsBuilt.Valid && amps > p.AsBuilt.V {
					p.UpgradeYear = cl.IssueYear
				}
			}
		}

		p.PermittedUpgrade = p.AsBuilt.Valid && p.Existing.V > p.AsBuilt.V
		if !p.PermittedUpgrade {
			p.UpgradeYear = 0
			continue
		}
		c.Permitted++
		if age, ok := p.AgeAt(p.UpgradeYear); ok {
			p.UpgradeAge = parcel.Known(float64(age))
		}
	}
	return c, nil
}

// proposeSize returns the rating proposed by an explicit amperage token.
// A null as-built rating takes the token as is.
func proposeSize(asBuilt parcel.Float, k float64, cfg *sector.Config) (float64, error) {
	if !cfg.Scale.Contains(k) {
		return 0, &parcel.UnrecognizedAmperageError{Sector: cfg.Sector, Amps: k, Reason: "permit token is not on the amperage scale"}
	}
	if asBuilt.Valid && asBuilt.V > k {
		return asBuilt.V, nil
	}
	return k, nil
}

// proposeOther returns the rating proposed by unlabeled panel work: one
// rung above as-built, clamped to the sector floor.
func proposeOther(asBuilt parcel.Float, cfg *sector.Config) (float64, error) {
	next, err := NextRung(asBuilt, cfg)
	if err != nil {
		return 0, err
	}
	if next < cfg.OtherWorkFloor {
		next = cfg.OtherWorkFloor
	}
	return next, nil
}

// NextRung returns the scale rung above a rating. A null rating steps from
// the sector's stand-in value.
func NextRung(amps parcel.Float, cfg *sector.Config) (float64, error) {
	base := cfg.UnknownAsBuilt
	if amps.Valid {
		base = amps.V
	}
	if !cfg.Scale.Contains(base) {
		return 0, &parcel.UnrecognizedAmperageError{Sector: cfg.Sector, Amps: base, Reason: "is not on the amperage scale"}
	}
	next, ok := cfg.Scale.Next(base)
	if !ok {
		return 0, &parcel.UnrecognizedAmperageError{Sector: cfg.Sector, Amps: base, Reason: "has no next rung"}
	}
	return next, nil
}
