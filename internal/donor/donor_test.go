package donor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesByFirstName(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Robert"}}
	q := Query{FirstName: "Bob", LastName: "Smith"}

	assert.True(t, d.Matches(q))
}

func TestMatchesByAltNameContainment(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Robert"}}

	// candidate's first name is one of the donor's aliases
	assert.True(t, d.Matches(Query{FirstName: "Robert", LastName: "Smith"}))

	// donor's first name is one of the candidate's aliases
	assert.True(t, d.Matches(Query{FirstName: "Rob", LastName: "Smith", AltNames: []string{"Bob"}}))
}

func TestMatchesByAltNameOverlap(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Bobby"}}
	q := Query{FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bobby"}}

	assert.True(t, d.Matches(q))
}

func TestMatchesRejectsUnrelatedNames(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith"}
	q := Query{FirstName: "Alice", LastName: "Smith", AltNames: []string{"Ally"}}

	assert.False(t, d.Matches(q))
}

// The overlap check is symmetric: swapping candidate and donor roles must
// not change the outcome.
func TestMatchesSymmetry(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Bobby", "Rob"}}
	q := Query{FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bobby"}}

	swappedDonor := Donor{FirstName: q.FirstName, LastName: q.LastName, AltNames: q.AltNames}
	swappedQuery := Query{FirstName: d.FirstName, LastName: d.LastName, AltNames: d.AltNames}

	assert.Equal(t, d.Matches(q), swappedDonor.Matches(swappedQuery))
}

func TestMergeAltNames(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Robert"}}
	d.MergeAltNames(Query{FirstName: "Bob", LastName: "Smith"})

	// the canonical first name is never stored as its own alias
	assert.Equal(t, []string{"Robert"}, d.AltNames)
}

func TestMergeAltNamesAddsCandidateFirstName(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Robert"}}
	d.MergeAltNames(Query{FirstName: "Bobby", LastName: "Smith", AltNames: []string{"Rob"}})

	assert.Equal(t, []string{"Robert", "Rob", "Bobby"}, d.AltNames)
}

func TestMergeAltNamesDeduplicates(t *testing.T) {
	d := Donor{FirstName: "Bob", LastName: "Smith", AltNames: []string{"Robert", "Bobby"}}
	d.MergeAltNames(Query{FirstName: "Robert", LastName: "Smith", AltNames: []string{"Bobby", "Bob"}})

	assert.Equal(t, []string{"Robert", "Bobby"}, d.AltNames)
}
