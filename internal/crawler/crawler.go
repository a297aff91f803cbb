package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/config"
	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/pkg/providers"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageDepth   = 3
	defaultConcurrency = 16
	defaultPageTimeout = 3 * time.Second
)

// Options tune how listing pages are fetched.
type Options struct {
	PageDepth     int
	Concurrency   int
	PageTimeout   time.Duration
	FailurePolicy string
}

// Target is one listing page to download.
type Target struct {
	Provider providers.Provider
	Route    providers.Route
	Page     int
	URL      string
}

// Batch holds per-target results in issue order.
type Batch struct {
	Pages  [][]domain.Promo
	Failed int
}

// Merge flattens the page slots in issue order.
func (b Batch) Merge() []domain.Promo {
	total := 0
	for _, page := range b.Pages {
		total += len(page)
	}
	out := make([]domain.Promo, 0, total)
	for _, page := range b.Pages {
		out = append(out, page...)
	}
	return out
}

// Collector fetches every configured listing page concurrently.
type Collector struct {
	registry providers.FetcherRegistry
	opts     Options
	log      logger.Logger
}

// NewCollector wires a collector with the fetcher registry.
func NewCollector(reg providers.FetcherRegistry, opts Options, log logger.Logger) *Collector {
	if opts.PageDepth <= 0 {
		opts.PageDepth = defaultPageDepth
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaultPageTimeout
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.PolicyAbort
	}
	return &Collector{registry: reg, opts: opts, log: logger.Ensure(log)}
}

// Targets expands providers into pages: provider, then route, then page 1..depth.
func (c *Collector) Targets(cfgs []providers.Provider) []Target {
	var out []Target
	for _, p := range cfgs {
		depth := p.Depth(c.opts.PageDepth)
		for _, route := range p.Routes {
			for page := 1; page <= depth; page++ {
				out = append(out, Target{
					Provider: p,
					Route:    route,
					Page:     page,
					URL:      p.PageURL(route, page),
				})
			}
		}
	}
	return out
}

// Collect downloads all targets. With the abort policy any failed page fails the whole batch;
// with skip, failed pages are logged and left empty.
func (c *Collector) Collect(ctx context.Context, cfgs []providers.Provider) (Batch, error) {
	if c == nil || c.registry == nil {
		return Batch{}, fmt.Errorf("collector is not initialized")
	}
	if len(cfgs) == 0 {
		return Batch{}, fmt.Errorf("no providers configured for crawling")
	}

	targets := c.Targets(cfgs)
	for _, p := range cfgs {
		c.log.InfoObj("provider crawl scheduled", "provider", map[string]any{
			"provider_id": p.ID,
			"routes":      len(p.Routes),
			"page_depth":  p.Depth(c.opts.PageDepth),
		})
	}

	slots := make([][]domain.Promo, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	var routesMu sync.Mutex
	routeCounts := make(map[string]int)

	for i, t := range targets {
		g.Go(func() error {
			// page errors are kept in their slot so siblings keep running
			promos, err := c.fetchTarget(gctx, t)
			if err != nil {
				errs[i] = err
				c.log.WarnObj("page fetch failed", "page_error", map[string]any{
					"provider_id": t.Provider.ID,
					"route":       t.Route.Name,
					"page":        t.Page,
					"url":         t.URL,
					"error":       err.Error(),
				})
				return nil
			}
			slots[i] = promos
			c.log.DebugObj("page fetched", "page", map[string]any{
				"provider_id": t.Provider.ID,
				"route":       t.Route.Name,
				"page":        t.Page,
				"items":       len(promos),
			})

			routesMu.Lock()
			key := t.Provider.ID + "/" + t.Route.Name
			routeCounts[key] += len(promos)
			routesMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	batch := Batch{Pages: slots}
	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	batch.Failed = len(failures)

	for key, n := range routeCounts {
		c.log.InfoObj("route crawl completed", "route_result", map[string]any{
			"route": key,
			"items": n,
		})
	}

	if len(failures) > 0 && c.opts.FailurePolicy != config.PolicySkip {
		return batch, errors.Join(failures...)
	}
	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

func (c *Collector) fetchTarget(ctx context.Context, t Target) ([]domain.Promo, error) {
	fetcher, err := c.registry.FetcherFor(t.Provider)
	if err != nil {
		return nil, fmt.Errorf("resolve fetcher for provider %s: %w", t.Provider.ID, err)
	}

	pageCtx, cancel := context.WithTimeout(ctx, c.opts.PageTimeout)
	defer cancel()

	promos, err := fetcher.FetchPage(pageCtx, t.Provider, t.Route, t.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page %d (%s): %w", t.Provider.ID, t.Page, t.URL, err)
	}
	return promos, nil
}
