package scrape

import (
	"fmt"
	"strings"

	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

// FindMatch selects the best candidate for a species name. Two passes run in
// strict order: an exact case-insensitive name match over the whole list, then
// a "bracket" match for cultivar-qualified names ("Rosa (Group)" for "Rosa").
// First hit in each pass wins; an exact match anywhere in the list always
// beats an earlier bracket match.
func FindMatch(species string, candidates []models.SearchCandidate) (models.SearchCandidate, error) {
	want := strings.ToLower(strings.TrimSpace(species))

	for _, c := range candidates {
		if strings.ToLower(strings.TrimSpace(c.Name)) == want {
			return c, nil
		}
	}

	prefix := want + " ("
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Name)), prefix) {
			return c, nil
		}
	}

	return models.SearchCandidate{}, faults.NoResults(
		fmt.Sprintf("no matching search results found for %q", species),
	).WithDetail("species", species)
}
