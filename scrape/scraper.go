// Package scrape resolves cultivation details for a species by querying the
// horticultural reference site and extracting structured fields from its
// detail pages.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

// Scraper composes the fetcher, matcher and extractors into one
// species-to-details operation. All failures leaving Resolve are classified
// faults; nothing unclassified crosses this boundary.
type Scraper struct {
	fetcher Fetcher
	metrics *Metrics
}

// NewScraper builds a scraper on top of the given fetcher.
func NewScraper(fetcher Fetcher, metrics *Metrics) *Scraper {
	return &Scraper{fetcher: fetcher, metrics: metrics}
}

// Resolve looks a species up on the reference site and extracts its
// cultivation details. The scrape path is all-or-nothing: any stage failure
// fails the whole lookup.
func (s *Scraper) Resolve(ctx context.Context, species string) (*models.PlantDetails, error) {
	start := time.Now()
	details, err := s.resolve(ctx, species)
	s.metrics.ObserveLookup("scrape", outcomeLabel(err), time.Since(start))
	return details, err
}

func (s *Scraper) resolve(ctx context.Context, species string) (*models.PlantDetails, error) {
	species = strings.TrimSpace(species)
	if species == "" {
		return nil, faults.Validation("species name cannot be empty")
	}

	candidates, err := s.fetcher.Search(ctx, species)
	if err != nil {
		return nil, faults.From(err)
	}
	slog.Debug("search results fetched",
		slog.String("species", species),
		slog.Int("candidates", len(candidates)),
	)

	match, err := FindMatch(species, candidates)
	if err != nil {
		return nil, faults.From(err)
	}

	classified, err := s.fetcher.FetchDetail(ctx, match)
	if err != nil {
		return nil, faults.From(err)
	}
	switch classified.Class {
	case SummaryOnly:
		return nil, faults.NoResults(
			fmt.Sprintf("only a brief summary is available for %q, no detailed information", species),
		).WithDetail("species", species)
	case NotFound:
		return nil, faults.Element(
			fmt.Sprintf("detail page for %q carries no cultivation details", species),
		).WithDetail("species", species)
	}

	return ExtractDetails(classified.Doc), nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(faults.From(err).Code)
}
