package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacet_Value(t *testing.T) {
	rec := EmployeeRecord{
		CurrentRankID: "A",
		BranchName:    "Cairo",
		SectionName:   "North",
		SectorName:    "S1",
	}

	assert.Equal(t, "A", FacetRank.Value(rec))
	assert.Equal(t, "Cairo", FacetBranch.Value(rec))
	assert.Equal(t, "North", FacetSection.Value(rec))
	assert.Equal(t, "S1", FacetSector.Value(rec))
	assert.Equal(t, "", Facet("bogus").Value(rec))
}

func TestFacet_SelectID(t *testing.T) {
	ids := make([]string, 0, len(Facets))
	for _, f := range Facets {
		ids = append(ids, f.SelectID())
	}
	assert.Equal(t, []string{"rankFilter", "branchFilter", "sectionFilter", "sectorFilter"}, ids)
}

func TestParseFacet(t *testing.T) {
	f, err := ParseFacet("branch")
	require.NoError(t, err)
	assert.Equal(t, FacetBranch, f)

	_, err = ParseFacet("name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown facet")
}

func TestCriteria_GetWith(t *testing.T) {
	c := Criteria{}
	assert.True(t, c.IsZero())

	for _, f := range Facets {
		c = c.With(f, "v-"+string(f))
	}
	for _, f := range Facets {
		assert.Equal(t, "v-"+string(f), c.Get(f))
	}
	assert.False(t, c.IsZero())

	// With does not modify the receiver
	base := Criteria{Rank: "A"}
	_ = base.With(FacetRank, "B")
	assert.Equal(t, "A", base.Rank)
}
