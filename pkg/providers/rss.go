package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"
)

// ConfigMaxAgeHoursKey bounds how old a feed entry may be and still count as live.
const ConfigMaxAgeHoursKey = "max_age_hours"

const defaultMaxAgeHours = 48

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	GUID        string      `xml:"guid"`
	PubDate     string      `xml:"pubDate"`
	Price       string      `xml:"price"`
	Temperature string      `xml:"temperature"`
	Merchant    rssMerchant `xml:"merchant"`
}

// rssMerchant matches the <pepper:merchant name=".." price=".."/> extension.
type rssMerchant struct {
	Name  string `xml:"name,attr"`
	Price string `xml:"price,attr"`
}

func parseRSS(data []byte) ([]rssItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	return feed.Channel.Items, nil
}

var rssDateLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339}

func parseRSSDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range rssDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rssFetcher reads deal feeds.
type rssFetcher struct {
	pageSource
}

// NewRSSFetcher builds the RSS 2.0 site adapter.
func NewRSSFetcher(client httpclient.Client) Fetcher {
	return newRSSFetcherWithClock(client, time.Now)
}

func newRSSFetcherWithClock(client httpclient.Client, now func() time.Time) *rssFetcher {
	return &rssFetcher{pageSource: newPageSource(client, now)}
}

func (f *rssFetcher) FetchPage(ctx context.Context, cfg Provider, route Route, pageURL string) ([]domain.Promo, error) {
	raw, err := downloadPage(ctx, f.client, pageURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	items, err := parseRSS(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", cfg.ID, err)
	}

	now := f.now().UTC()
	maxAge := time.Duration(ConfigInt(cfg, ConfigMaxAgeHoursKey, defaultMaxAgeHours)) * time.Hour

	promos := make([]domain.Promo, 0, len(items))
	for _, item := range items {
		title := collapseSpace(item.Title)
		if title == "" {
			continue
		}
		if published, ok := parseRSSDate(item.PubDate); ok && maxAge > 0 && now.Sub(published) > maxAge {
			continue
		}

		link := resolveURL(item.Link, pageURL)
		guid := strings.TrimSpace(item.GUID)
		if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
			guid = domain.PromoID("", guid)
		}
		id := domain.PromoID(guid, link)
		if id == "" {
			continue
		}

		price := strings.TrimSpace(item.Price)
		if price == "" {
			price = strings.TrimSpace(item.Merchant.Price)
		}

		promos = append(promos, domain.Promo{
			ID:        id,
			Title:     title,
			Price:     price,
			Temp:      strings.TrimSpace(item.Temperature),
			Link:      link,
			CreatedAt: now,
			Provider:  cfg.ID,
			Route:     route.Name,
		})
	}
	return promos, nil
}
