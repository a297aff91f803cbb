package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
)

// Selector keys accepted in provider.Config by the html adapter.
const (
	ConfigItemSelectorKey  = "item_selector"
	ConfigTitleSelectorKey = "title_selector"
	ConfigLinkSelectorKey  = "link_selector"
	ConfigPriceSelectorKey = "price_selector"
	ConfigTempSelectorKey  = "temp_selector"
	ConfigExpiredClassKey  = "expired_class"
	ConfigIDAttrKey        = "id_attr"
	ConfigIDPrefixKey      = "id_prefix"
)

// Defaults follow the thread listing markup shared by the pepper.com family of deal sites.
const (
	defaultItemSelector  = "article.thread--deal"
	defaultTitleSelector = ".thread-title a, a.thread-link"
	defaultPriceSelector = ".thread-price"
	defaultTempSelector  = ".vote-temp"
	defaultExpiredClass  = "thread--expired"
	defaultIDAttr        = "id"
	defaultIDPrefix      = "thread_"
)

type htmlSelectors struct {
	item     string
	title    string
	link     string
	price    string
	temp     string
	expired  string
	idAttr   string
	idPrefix string
}

func selectorsFor(cfg Provider) htmlSelectors {
	title := ConfigString(cfg, ConfigTitleSelectorKey, defaultTitleSelector)
	return htmlSelectors{
		item:     ConfigString(cfg, ConfigItemSelectorKey, defaultItemSelector),
		title:    title,
		link:     ConfigString(cfg, ConfigLinkSelectorKey, title),
		price:    ConfigString(cfg, ConfigPriceSelectorKey, defaultPriceSelector),
		temp:     ConfigString(cfg, ConfigTempSelectorKey, defaultTempSelector),
		expired:  ConfigString(cfg, ConfigExpiredClassKey, defaultExpiredClass),
		idAttr:   ConfigString(cfg, ConfigIDAttrKey, defaultIDAttr),
		idPrefix: ConfigString(cfg, ConfigIDPrefixKey, defaultIDPrefix),
	}
}

// htmlFetcher extracts promos from server-rendered listing pages.
type htmlFetcher struct {
	pageSource
}

// NewHTMLFetcher builds the selector-driven html site adapter.
func NewHTMLFetcher(client httpclient.Client) Fetcher {
	return newHTMLFetcherWithClock(client, time.Now)
}

func newHTMLFetcherWithClock(client httpclient.Client, now func() time.Time) *htmlFetcher {
	return &htmlFetcher{pageSource: newPageSource(client, now)}
}

func (f *htmlFetcher) FetchPage(ctx context.Context, cfg Provider, route Route, pageURL string) ([]domain.Promo, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, fmt.Errorf("provider %q page url is empty", cfg.ID)
	}

	body, err := downloadPage(ctx, f.client, pageURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	promos, err := parseListing(body, pageURL, selectorsFor(cfg), f.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("parse %s page %s: %w", cfg.ID, pageURL, err)
	}
	for i := range promos {
		promos[i].Provider = cfg.ID
		promos[i].Route = route.Name
	}
	return promos, nil
}

// parseListing walks every listing node, dropping expired ones and entries without a title.
func parseListing(body []byte, pageURL string, sel htmlSelectors, createdAt time.Time) ([]domain.Promo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var promos []domain.Promo
	doc.Find(sel.item).Each(func(_ int, node *goquery.Selection) {
		if sel.expired != "" && node.HasClass(sel.expired) {
			return
		}

		titleNode := node.Find(sel.title).First()
		title := collapseSpace(titleNode.Text())
		if title == "" {
			title = collapseSpace(titleNode.AttrOr("title", ""))
		}
		if title == "" {
			return
		}

		href, _ := node.Find(sel.link).First().Attr("href")
		link := resolveURL(href, pageURL)

		nativeID := strings.TrimPrefix(strings.TrimSpace(node.AttrOr(sel.idAttr, "")), sel.idPrefix)
		id := domain.PromoID(nativeID, link)
		if id == "" {
			// no identity to deduplicate on
			return
		}

		promos = append(promos, domain.Promo{
			ID:        id,
			Title:     title,
			Price:     collapseSpace(node.Find(sel.price).First().Text()),
			Temp:      collapseSpace(node.Find(sel.temp).First().Text()),
			Link:      link,
			CreatedAt: createdAt,
		})
	})
	return promos, nil
}
