package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

// Fetcher retrieves search results and classified detail documents. Each call
// owns its own session; implementations hold no per-request state.
type Fetcher interface {
	Search(ctx context.Context, species string) ([]models.SearchCandidate, error)
	FetchDetail(ctx context.Context, candidate models.SearchCandidate) (ClassifiedDocument, error)
}

// SiteFetcher retrieves static document snapshots over plain HTTP. This is
// the preferred strategy: it has the smaller failure surface of the two.
type SiteFetcher struct {
	cfg       config.SiteConfig
	collector *colly.Collector
}

// NewSiteFetcher builds a fetcher configured for the reference site.
func NewSiteFetcher(cfg config.SiteConfig) (*SiteFetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	// Repeated lookups for the same species revisit the same pages.
	collector.AllowURLRevisit = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &SiteFetcher{cfg: cfg, collector: collector}, nil
}

// Search fetches the search results page for a species and returns its
// candidates.
func (f *SiteFetcher) Search(ctx context.Context, species string) ([]models.SearchCandidate, error) {
	doc, err := f.document(ctx, searchURL(f.cfg, species))
	if err != nil {
		return nil, err
	}
	return parseCandidates(doc)
}

// FetchDetail retrieves and classifies the detail document for a candidate.
func (f *SiteFetcher) FetchDetail(ctx context.Context, candidate models.SearchCandidate) (ClassifiedDocument, error) {
	doc, err := f.document(ctx, detailURL(f.cfg, candidate))
	if err != nil {
		return ClassifiedDocument{}, err
	}
	return Classify(doc), nil
}

// document fetches one page, honouring the caller's deadline. The visit runs
// on its own goroutine so cancellation returns immediately; the abandoned
// transfer still ends within the collector's request timeout.
func (f *SiteFetcher) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, faults.From(err)
	}

	type result struct {
		doc *goquery.Document
		err error
	}
	done := make(chan result, 1)
	go func() {
		doc, err := f.visit(pageURL)
		done <- result{doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, faults.From(ctx.Err())
	case r := <-done:
		return r.doc, r.err
	}
}

// visit fetches one page on a cloned collector, so concurrent lookups never
// share handler state.
func (f *SiteFetcher) visit(pageURL string) (*goquery.Document, error) {
	c := f.collector.Clone()

	var doc *goquery.Document
	var failure error
	c.OnResponse(func(r *colly.Response) {
		d, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			failure = faults.Parsing("parse document at "+pageURL, err)
			return
		}
		doc = d
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		failure = classifyTransport(pageURL, err, status)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, classifyTransport(pageURL, err, 0)
	}
	c.Wait()

	if failure != nil {
		return nil, failure
	}
	if doc == nil {
		return nil, faults.Network("no response received from "+pageURL, nil)
	}
	return doc, nil
}

// classifyTransport maps a transport error and optional HTTP status onto the
// closed fault set. Timeouts and connection failures are distinguished from
// content-shape failures, which are handled by document classification.
func classifyTransport(pageURL string, err error, status int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return faults.Timeout("request to "+pageURL+" timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return faults.Timeout("request to "+pageURL+" timed out", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return faults.Network("failed to reach "+pageURL, err)
	}

	switch status {
	case http.StatusNotFound:
		return faults.Element("document not found at " + pageURL)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return faults.New(faults.CodeService, http.StatusServiceUnavailable,
			fmt.Sprintf("site rejected request to %s with status %d", pageURL, status))
	}
	if status >= http.StatusBadRequest {
		return faults.Service(fmt.Sprintf("unexpected status %d from %s", status, pageURL), err)
	}
	return faults.Network("failed to reach "+pageURL, err)
}
