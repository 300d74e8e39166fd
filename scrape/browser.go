package scrape

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

// ConsentStrategy is one attempt at dismissing the consent overlay: a button
// selector and how long to wait for it. Strategies are data so new overlay
// variants are additive.
type ConsentStrategy struct {
	Selector string
	Wait     time.Duration
}

// DefaultConsentStrategies covers the overlay variants seen on the site, in
// the order they should be tried.
func DefaultConsentStrategies(wait time.Duration) []ConsentStrategy {
	return []ConsentStrategy{
		{Selector: ".onetrust-close-btn-handler", Wait: wait},
		{Selector: "#onetrust-accept-btn-handler", Wait: wait},
		{Selector: `button[aria-label="Close"]`, Wait: wait},
	}
}

// BrowserFetcher drives a headless browser session per lookup, for pages that
// only render client-side. Selected by the site fetch_mode setting; the
// static SiteFetcher is preferred where the source serves usable snapshots.
type BrowserFetcher struct {
	cfg     config.SiteConfig
	browser *rod.Browser
	consent []ConsentStrategy
}

// NewBrowserFetcher launches a headless browser and connects to it.
func NewBrowserFetcher(cfg config.SiteConfig) (*BrowserFetcher, error) {
	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, faults.Service("launch headless browser", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, faults.Service("connect to headless browser", err)
	}
	return &BrowserFetcher{
		cfg:     cfg,
		browser: browser,
		consent: DefaultConsentStrategies(cfg.ConsentTimeout),
	}, nil
}

// Close shuts the shared browser process down.
func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}

// Search renders the search results page in a fresh session and returns its
// candidates.
func (f *BrowserFetcher) Search(ctx context.Context, species string) ([]models.SearchCandidate, error) {
	doc, err := f.render(ctx, searchURL(f.cfg, species), searchListTag)
	if err != nil {
		return nil, err
	}
	return parseCandidates(doc)
}

// FetchDetail renders a candidate's detail page and classifies it.
func (f *BrowserFetcher) FetchDetail(ctx context.Context, candidate models.SearchCandidate) (ClassifiedDocument, error) {
	doc, err := f.render(ctx, detailURL(f.cfg, candidate), fullDetailMarker+", "+summaryMarker)
	if err != nil {
		return ClassifiedDocument{}, err
	}
	return Classify(doc), nil
}

// render opens a page, dismisses the consent overlay, waits for the readiness
// selector and snapshots the rendered HTML. The page session is torn down on
// every exit path; a teardown failure is logged and never masks the primary
// failure.
func (f *BrowserFetcher) render(ctx context.Context, pageURL, readySelector string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, faults.From(err)
	}

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, faults.Service("open browser page", err)
	}
	defer f.closePage(page)

	page = page.Context(ctx)
	if err := page.Timeout(f.cfg.Timeout).Navigate(pageURL); err != nil {
		return nil, classifyTransport(pageURL, err, 0)
	}
	if err := page.Timeout(f.cfg.Timeout).WaitLoad(); err != nil {
		return nil, faults.Timeout("page load for "+pageURL+" timed out", err)
	}

	f.dismissConsent(page)

	if _, err := page.Timeout(f.cfg.Timeout).Element(readySelector); err != nil {
		return nil, faults.Element("expected content never rendered at " + pageURL)
	}

	rendered, err := page.HTML()
	if err != nil {
		return nil, faults.Service("snapshot rendered page "+pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil, faults.Parsing("parse rendered page "+pageURL, err)
	}
	return doc, nil
}

// dismissConsent tries each strategy in order with a bounded wait. Failure is
// non-fatal: the overlay may simply not be present in this session.
func (f *BrowserFetcher) dismissConsent(page *rod.Page) {
	for _, strategy := range f.consent {
		el, err := page.Timeout(strategy.Wait).Element(strategy.Selector)
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			slog.Debug("consent button not clickable",
				slog.String("selector", strategy.Selector),
				slog.Any("error", err),
			)
			continue
		}
		slog.Debug("dismissed consent overlay", slog.String("selector", strategy.Selector))
		return
	}
	slog.Debug("no consent overlay matched")
}

func (f *BrowserFetcher) closePage(page *rod.Page) {
	if err := page.Close(); err != nil {
		slog.Warn("close browser page", slog.Any("error", err))
	}
}
