// Package filter derives facet values from a snapshot and selects the records
// matching a set of criteria.
//
// Both operations are linear scans over the snapshot. Neither mutates its
// input.
package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/staffdir/internal/roster"
)

// FacetValues holds the distinct values of every facet.
type FacetValues map[roster.Facet][]string

// DistinctValues returns the distinct values of facet in order of first
// occurrence. An empty section is reported as "" and included.
func DistinctValues(snap roster.Snapshot, facet roster.Facet) []string {
	seen := make(map[string]struct{}, len(snap))
	values := make([]string, 0)
	for _, rec := range snap {
		v := facet.Value(rec)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Facets returns DistinctValues for all four facets.
func Facets(snap roster.Snapshot) FacetValues {
	out := make(FacetValues, len(roster.Facets))
	for _, f := range roster.Facets {
		out[f] = DistinctValues(snap, f)
	}
	return out
}

// Apply returns the records matching every set field of c, in input order.
//
// Facet fields match by equality. Search matches when the folded name
// contains the folded search text.
func Apply(snap roster.Snapshot, c roster.Criteria) roster.Snapshot {
	needle := Fold(c.Search)
	out := make(roster.Snapshot, 0, len(snap))
	for _, rec := range snap {
		if matches(rec, c, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// matches reports whether rec satisfies c. needle is the folded search text.
func matches(rec roster.EmployeeRecord, c roster.Criteria, needle string) bool {
	for _, f := range roster.Facets {
		want := c.Get(f)
		if want != "" && f.Value(rec) != want {
			return false
		}
	}
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(rec.Name), needle)
}

// Fold normalizes s to NFC and lowercases it without language-specific
// rules. Apply compares folded forms on both sides.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser is not safe for concurrent use.
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
