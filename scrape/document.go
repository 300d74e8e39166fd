package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

// DocClass classifies a retrieved detail document by completeness.
type DocClass int

const (
	// FullDetail means the rich cultivation data is present.
	FullDetail DocClass = iota
	// SummaryOnly means the source has only a brief summary for this plant.
	SummaryOnly
	// NotFound means the document carries neither completeness marker.
	NotFound
)

// ClassifiedDocument is the outcome of a detail fetch. Doc is set only for
// FullDetail.
type ClassifiedDocument struct {
	Class DocClass
	Doc   *goquery.Document
}

// Completeness markers and the search result selector used by the source.
const (
	fullDetailMarker  = "lib-plant-details-full"
	summaryMarker     = "lib-plant-details-summary"
	searchListTag     = "app-plant-search-list"
	candidateSelector = "a.u-faux-block-link__overlay"
)

// maxCandidates caps how many search results are considered per lookup.
const maxCandidates = 20

// Classify inspects a detail document for the completeness markers.
func Classify(doc *goquery.Document) ClassifiedDocument {
	switch {
	case doc.Find(fullDetailMarker).Length() > 0:
		return ClassifiedDocument{Class: FullDetail, Doc: doc}
	case doc.Find(summaryMarker).Length() > 0:
		return ClassifiedDocument{Class: SummaryOnly}
	default:
		return ClassifiedDocument{Class: NotFound}
	}
}

// parseCandidates extracts up to maxCandidates search results from a search
// page. Candidate names are the rendered text of the result anchor, so inline
// markup around the botanical name does not leak into matching. A page with
// no result list at all cannot be interpreted and is a parsing failure; a
// present-but-empty list yields an empty slice.
func parseCandidates(doc *goquery.Document) ([]models.SearchCandidate, error) {
	list := doc.Find(searchListTag)
	if list.Length() == 0 {
		return nil, faults.Parsing("search results page has no result list", nil)
	}

	out := []models.SearchCandidate{}
	list.Find(candidateSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(out) >= maxCandidates {
			return false
		}
		name := strings.Join(strings.Fields(a.Text()), " ")
		id := idFromHref(a.AttrOr("href", ""))
		if name == "" || id == "" {
			return true
		}
		out = append(out, models.SearchCandidate{Name: name, ID: id})
		return true
	})
	return out, nil
}

// idFromHref pulls the opaque plant id out of a result link such as
// "/plants/104669/tulipa-gesneriana/details".
func idFromHref(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "plants" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}

// searchURL builds the search endpoint URL for a species query.
func searchURL(cfg config.SiteConfig, species string) string {
	return strings.TrimSuffix(cfg.BaseURL, "/") + cfg.SearchPath + url.QueryEscape(strings.ToLower(species))
}

// detailURL builds the canonical detail-page locator for a candidate: the
// opaque id followed by the lower-cased, space-to-hyphen name.
func detailURL(cfg config.SiteConfig, c models.SearchCandidate) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Name)), " ", "-")
	return fmt.Sprintf("%s/plants/%s/%s/details", strings.TrimSuffix(cfg.BaseURL, "/"), c.ID, slug)
}
