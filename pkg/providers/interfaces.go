package providers

import (
	"context"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
)

// Fetcher is a site adapter: it downloads one listing page and extracts the live promos on it.
// Expired or inactive listings must be filtered out before returning.
type Fetcher interface {
	FetchPage(ctx context.Context, cfg Provider, route Route, pageURL string) ([]domain.Promo, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}
