// Package permit classifies free-text permit descriptions into panel work
// categories.
package permit

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/sector"
)

// Kind is the classification outcome for one permit.
type Kind int

const (
	NotPanelRelated Kind = iota
	SizeMatch
	OtherPanelWork
)

func (k Kind) String() string {
	switch k {
	case SizeMatch:
		return "size_match"
	case OtherPanelWork:
		return "other_panel_work"
	}
	return "not_panel_related"
}

// MarshalText writes the kind name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Classification is the result of classifying one permit description.
type Classification struct {
	Kind Kind `json:"kind"`
	// Sizes holds every recognized amperage token, ascending. Only set for
	// SizeMatch.
	Sizes []float64 `json:"sizes,omitempty"`
	// Keyword is the first panel-work keyword found, if any.
	Keyword string `json:"keyword,omitempty"`
	// IssueYear is copied from the permit; 0 when unknown.
	IssueYear int `json:"issue_year,omitempty"`
}

// Max returns the largest matched size, or 0.
func (c Classification) Max() float64 {
	if len(c.Sizes) == 0 {
		return 0
	}
	return c.Sizes[len(c.Sizes)-1]
}

// Classify scans a description for the sector's amperage tokens and panel
// work keywords. Amperage tokens take precedence; a keyword alone yields
// OtherPanelWork.
func Classify(description string, cfg *sector.Config) Classification {
	text := strings.ToLower(description)

	var sizes []float64
	for _, tok := range cfg.Tokens {
		if hasToken(text, strconv.FormatFloat(tok, 'f', -1, 64)) {
			sizes = append(sizes, tok)
		}
	}
	if len(sizes) > 0 {
		sort.Float64s(sizes)
		return Classification{Kind: SizeMatch, Sizes: sizes}
	}

	for _, kw := range cfg.Keywords {
		if hasToken(text, kw) {
			return Classification{Kind: OtherPanelWork, Keyword: kw}
		}
	}
	return Classification{Kind: NotPanelRelated}
}

// ClassifyPermit classifies a permit record. A permit flagged panel-related
// upstream with no recognizable amperage is OtherPanelWork.
func ClassifyPermit(pm parcel.Permit, cfg *sector.Config) Classification {
	c := Classify(pm.Description, cfg)
	if c.Kind == NotPanelRelated && pm.PanelRelated {
		c.Kind = OtherPanelWork
	}
	c.IssueYear = pm.IssueYear
	return c
}

// ClassifyAll classifies every permit attached to the parcels and returns
// the panel-related results keyed by parcel ID, in issue year order.
func ClassifyAll(parcels []*parcel.Parcel, cfg *sector.Config) map[string][]Classification {
	out := make(map[string][]Classification)
	for _, p := range parcels {
		for _, pm := range p.Permits {
			c := ClassifyPermit(pm, cfg)
			if c.Kind == NotPanelRelated {
				continue
			}
			out[p.ID] = append(out[p.ID], c)
		}
	}
	for id := range out {
		SortByIssueYear(out[id])
	}
	return out
}

// SortByIssueYear orders classifications oldest first. Undated permits sort
// last; ties keep their input order.
func SortByIssueYear(cs []Classification) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i].IssueYear, cs[j].IssueYear
		if a <= 0 {
			return false
		}
		if b <= 0 {
			return true
		}
		return a < b
	})
}

// hasToken reports whether tok occurs in text at the start or after a space,
// and is not followed by a digit (numbers) or by a letter or digit (words).
// "200a" matches 200; "1500 main st" does not match 150 and "accessory"
// does not match "ac".
func hasToken(text, tok string) bool {
	if tok == "" {
		return false
	}
	numeric := isDigit(tok[0])
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], tok)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(tok)
		before := start == 0 || text[start-1] == ' '
		after := end == len(text) || (numeric && !isDigit(text[end])) || (!numeric && !isWordByte(text[end]))
		if before && after {
			return true
		}
		i = start + 1
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isWordByte(b byte) bool { return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
