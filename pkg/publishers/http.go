package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// httpPublisher posts messages to a webhook (Slack, Discord, custom endpoints).
type httpPublisher struct {
	id        string
	method    string
	url       string
	textField string
	headers   map[string]string
	client    *resty.Client
	log       logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(httpclient.Options{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})

	textField := cfg.HTTP.TextField
	if textField == "" {
		textField = httpDefaultTextField
	}

	return &httpPublisher{
		id:        cfg.ID,
		method:    cfg.HTTP.Method,
		url:       cfg.HTTP.URL,
		textField: textField,
		headers:   cfg.HTTP.Headers,
		client:    client,
		log:       logger.Ensure(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, msg Message) error {
	body := map[string]string{
		"promo_id": msg.PromoID,
		"link":     msg.Link,
	}
	body[h.textField] = msg.Text

	req := h.client.R().
		SetContext(ctx).
		SetBody(body)

	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}

	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		snippet := readBodySnippet(resp.Body())
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), snippet)
	}
	h.log.DebugObj("http publisher delivered message", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"promo_id":     msg.PromoID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
