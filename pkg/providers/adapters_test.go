package providers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"
)

type mockHTTPClient struct {
	t         *testing.T
	expect    map[string]string
	expectURL string
	status    int
	body      string
}

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

func (m mockHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	if m.expectURL != "" && url != m.expectURL {
		m.t.Fatalf("expected url %q, got %q", m.expectURL, url)
	}
	for key, want := range m.expect {
		if got := headers[key]; got != want {
			m.t.Fatalf("expected header %s=%q, got %q", key, want, got)
		}
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(m.body), statusCode: status}, nil
}

type namedFetcher struct{ name string }

func (n namedFetcher) FetchPage(context.Context, Provider, Route, string) ([]domain.Promo, error) {
	return []domain.Promo{{ID: n.name}}, nil
}

func fetchedBy(t *testing.T, f Fetcher) string {
	t.Helper()
	promos, err := f.FetchPage(context.Background(), Provider{}, Route{}, "")
	if err != nil || len(promos) != 1 {
		t.Fatalf("unexpected fetch result %v %v", promos, err)
	}
	return promos[0].ID
}

func TestAdaptersPreferProviderBinding(t *testing.T) {
	reg := NewAdapters().
		Register("html", namedFetcher{name: "generic"}).
		Bind("special", namedFetcher{name: "special"})

	f, err := reg.FetcherFor(Provider{ID: "Special", Type: "html"})
	if err != nil {
		t.Fatalf("FetcherFor: %v", err)
	}
	if got := fetchedBy(t, f); got != "special" {
		t.Fatalf("expected bound adapter, got %s", got)
	}

	f, err = reg.FetcherFor(Provider{ID: "other", Type: "HTML"})
	if err != nil {
		t.Fatalf("FetcherFor: %v", err)
	}
	if got := fetchedBy(t, f); got != "generic" {
		t.Fatalf("expected type adapter, got %s", got)
	}

	_, err = reg.FetcherFor(Provider{ID: "other", Type: "json"})
	if err == nil || !strings.Contains(err.Error(), "known types: html") {
		t.Fatalf("expected unknown type error listing known types, got %v", err)
	}
}

func TestAdaptersIgnoreBlankKeys(t *testing.T) {
	reg := NewAdapters().Register(" ", namedFetcher{name: "x"}).Bind("p", nil)
	if len(reg.Types()) != 0 {
		t.Fatalf("expected no types, got %v", reg.Types())
	}
	if _, err := reg.FetcherFor(Provider{ID: "p", Type: "html"}); err == nil {
		t.Fatalf("expected no adapter for nil binding")
	}
}

func TestDefaultAdaptersKnowBuiltinTypes(t *testing.T) {
	reg := DefaultAdapters(mockHTTPClient{t: t})
	if got := strings.Join(reg.Types(), ","); got != "html,rss" {
		t.Fatalf("unexpected types %q", got)
	}
	for _, typ := range []string{ProviderTypeHTML, ProviderTypeRSS} {
		if _, err := reg.FetcherFor(Provider{ID: "p", Type: typ}); err != nil {
			t.Fatalf("FetcherFor(%s): %v", typ, err)
		}
	}
}

func TestDownloadPageRejectsOversizedBody(t *testing.T) {
	client := mockHTTPClient{t: t, body: strings.Repeat("a", maxPageBytes+1)}
	_, err := downloadPage(context.Background(), client, "https://example.com/hot?page=1", "p", nil)
	if !errors.Is(err, ErrPageTooLarge) {
		t.Fatalf("expected ErrPageTooLarge, got %v", err)
	}

	client.body = strings.Repeat("a", maxPageBytes)
	body, err := downloadPage(context.Background(), client, "https://example.com/hot?page=1", "p", nil)
	if err != nil || len(body) != maxPageBytes {
		t.Fatalf("expected full body at the limit, got %d bytes, err %v", len(body), err)
	}
}
