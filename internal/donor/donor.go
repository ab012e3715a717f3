package donor

import "strings"

// Donor is a read model reconstructed from query results. Relation is only
// populated when the donor was loaded in the context of a user link.
type Donor struct {
	ID            int      `json:"donorId"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	OtherLastName string   `json:"otherLastName,omitempty"`
	AltNames      []string `json:"altNames"`
	Relation      string   `json:"relation,omitempty"`
}

// Query is a validated, normalized candidate entered on the add form.
type Query struct {
	FirstName string
	LastName  string
	AltNames  []string
	Relation  string
}

func (d Donor) FullName() string {
	return d.FirstName + " " + d.LastName
}

func (d Donor) AltNamesString() string {
	return strings.Join(d.AltNames, ", ")
}

// Matches reports whether d likely refers to the same person as the
// candidate. Callers have already narrowed to an exact last-name match; this
// is the symmetric overlap check across first names and alias lists.
func (d Donor) Matches(q Query) bool {
	if d.FirstName == q.FirstName {
		return true
	}
	if contains(d.AltNames, q.FirstName) || contains(q.AltNames, d.FirstName) {
		return true
	}
	for _, name := range d.AltNames {
		if contains(q.AltNames, name) {
			return true
		}
	}
	return false
}

// MergeAltNames folds the candidate's aliases, and its first name, into d's
// alias list. Duplicates are dropped keeping first-seen order, and the
// canonical first name is never kept as its own alias.
func (d *Donor) MergeAltNames(q Query) {
	candidates := make([]string, 0, len(d.AltNames)+len(q.AltNames)+1)
	candidates = append(candidates, d.AltNames...)
	candidates = append(candidates, q.AltNames...)
	candidates = append(candidates, q.FirstName)

	seen := make(map[string]bool, len(candidates))
	merged := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if name == d.FirstName || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, name)
	}

	d.AltNames = merged
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
