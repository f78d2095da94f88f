package roster

import "fmt"

// Facet is one of the four categorical fields used for filtering.
type Facet string

const (
	FacetRank    Facet = "rank"
	FacetBranch  Facet = "branch"
	FacetSection Facet = "section"
	FacetSector  Facet = "sector"
)

// Facets lists every facet in display order.
var Facets = []Facet{FacetRank, FacetBranch, FacetSection, FacetSector}

// ParseFacet converts a facet name to a Facet.
func ParseFacet(name string) (Facet, error) {
	for _, f := range Facets {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown facet %q: must be one of %v", name, Facets)
}

// Value returns the record's value for this facet.
// A missing section is reported as "".
func (f Facet) Value(rec EmployeeRecord) string {
	switch f {
	case FacetRank:
		return rec.CurrentRankID
	case FacetBranch:
		return rec.BranchName
	case FacetSection:
		return rec.SectionName
	case FacetSector:
		return rec.SectorName
	default:
		return ""
	}
}

// SelectID is the identifier of the selector element for this facet.
func (f Facet) SelectID() string {
	return string(f) + "Filter"
}

// Criteria is the transient filter state built from user input.
// Empty fields are unset and always pass.
type Criteria struct {
	Rank    string `json:"rank,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Section string `json:"section,omitempty"`
	Sector  string `json:"sector,omitempty"`
	Search  string `json:"search,omitempty"`
}

// Get returns the criteria value for a facet.
func (c Criteria) Get(f Facet) string {
	switch f {
	case FacetRank:
		return c.Rank
	case FacetBranch:
		return c.Branch
	case FacetSection:
		return c.Section
	case FacetSector:
		return c.Sector
	default:
		return ""
	}
}

// With returns a copy of c with the facet set to value.
func (c Criteria) With(f Facet, value string) Criteria {
	switch f {
	case FacetRank:
		c.Rank = value
	case FacetBranch:
		c.Branch = value
	case FacetSection:
		c.Section = value
	case FacetSector:
		c.Sector = value
	}
	return c
}

// IsZero reports whether no field is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}
