package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"
)

// Supported site adapter types.
const (
	ProviderTypeHTML = "html"
	ProviderTypeRSS  = "rss"
)

const defaultPageTimeout = 3 * time.Second

// Adapters resolves the site adapter for a provider. An adapter bound to a provider id
// wins over the one registered for its type.
type Adapters struct {
	mu     sync.RWMutex
	byType map[string]Fetcher
	byID   map[string]Fetcher
}

// NewAdapters returns an empty adapter set.
func NewAdapters() *Adapters {
	return &Adapters{byType: map[string]Fetcher{}, byID: map[string]Fetcher{}}
}

// DefaultAdapters registers the html and rss adapters on a shared page client.
func DefaultAdapters(client httpclient.Client) *Adapters {
	return NewAdapters().
		Register(ProviderTypeHTML, NewHTMLFetcher(client)).
		Register(ProviderTypeRSS, NewRSSFetcher(client))
}

// Register sets the adapter for a provider type.
func (a *Adapters) Register(typ string, f Fetcher) *Adapters {
	a.put(a.byType, typ, f)
	return a
}

// Bind sets an adapter for one provider id, for sites whose markup needs custom handling.
func (a *Adapters) Bind(providerID string, f Fetcher) *Adapters {
	a.put(a.byID, providerID, f)
	return a
}

func (a *Adapters) put(m map[string]Fetcher, key string, f Fetcher) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || f == nil {
		return
	}
	a.mu.Lock()
	m[key] = f
	a.mu.Unlock()
}

// Types lists the registered adapter types, sorted.
func (a *Adapters) Types() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.typesLocked()
}

// FetcherFor implements FetcherRegistry.
func (a *Adapters) FetcherFor(cfg Provider) (Fetcher, error) {
	if a == nil {
		return nil, fmt.Errorf("adapter set is nil")
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	if f, ok := a.byID[strings.ToLower(strings.TrimSpace(cfg.ID))]; ok {
		return f, nil
	}
	if f, ok := a.byType[strings.ToLower(strings.TrimSpace(cfg.Type))]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no adapter for provider %q of type %q (known types: %s)",
		cfg.ID, cfg.Type, strings.Join(a.typesLocked(), ", "))
}

func (a *Adapters) typesLocked() []string {
	out := make([]string, 0, len(a.byType))
	for typ := range a.byType {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// pageSource is the download side shared by the adapters.
type pageSource struct {
	client httpclient.Client
	now    func() time.Time
}

func newPageSource(client httpclient.Client, now func() time.Time) pageSource {
	if client == nil {
		client = httpclient.NewRestyClient(defaultPageTimeout)
	}
	if now == nil {
		now = time.Now
	}
	return pageSource{client: client, now: now}
}
