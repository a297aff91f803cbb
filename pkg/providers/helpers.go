package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"
)

const maxPageBytes = 4 << 20 // 4 MiB

// ErrPageTooLarge is returned for listing pages above maxPageBytes.
var ErrPageTooLarge = errors.New("page body exceeds size limit")

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// downloadPage GETs a listing page and fails on any non-200 response.
func downloadPage(ctx context.Context, client httpclient.Client, pageURL, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, pageURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page %s: %w", providerID, pageURL, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s page %s returned status %d body: %s", providerID, pageURL, resp.StatusCode(), responseSnippet(body))
	}
	if len(body) > maxPageBytes {
		return nil, fmt.Errorf("%s page %s is %d bytes: %w", providerID, pageURL, len(body), ErrPageTooLarge)
	}
	return body, nil
}

// resolveURL makes href absolute against the page it was found on.
func resolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// collapseSpace trims and folds runs of whitespace scraped from markup.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
