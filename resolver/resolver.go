// Package resolver runs a lookup against the scrape path first and falls back
// to the generative provider on any failure, so one transient site problem
// never costs the caller an answer.
package resolver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
	"github.com/florawise/plantdetails/scrape"
)

// Backend answers lookups from the reference site.
type Backend interface {
	Resolve(ctx context.Context, species string) (*models.PlantDetails, error)
}

// Fallback answers lookups from the generative provider.
type Fallback interface {
	Generate(ctx context.Context, species string) (*models.PlantDetails, error)
}

// Resolver chains the two lookup paths.
type Resolver struct {
	primary  Backend
	fallback Fallback
	metrics  *scrape.Metrics
}

// New builds a resolver over the given backends.
func New(primary Backend, fallback Fallback, metrics *scrape.Metrics) *Resolver {
	return &Resolver{primary: primary, fallback: fallback, metrics: metrics}
}

// Resolve answers a lookup. Input validation happens once here: an empty
// species is rejected before either backend is invoked. Any primary failure
// triggers the fallback; when both fail, the fallback's fault is returned.
func (r *Resolver) Resolve(ctx context.Context, species string) (*models.PlantDetails, error) {
	species = strings.TrimSpace(species)
	if species == "" {
		return nil, faults.Validation("species name cannot be empty")
	}

	details, err := r.primary.Resolve(ctx, species)
	if err == nil {
		return details, nil
	}
	primaryFault := faults.From(err)
	slog.Warn("site lookup failed, falling back to generative provider",
		slog.String("species", species),
		slog.String("code", string(primaryFault.Code)),
		slog.String("error", err.Error()),
	)
	r.metrics.IncFallback()

	start := time.Now()
	details, err = r.fallback.Generate(ctx, species)
	r.metrics.ObserveLookup("llm", outcome(err), time.Since(start))
	if err != nil {
		return nil, faults.From(err)
	}
	return details, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(faults.From(err).Code)
}
