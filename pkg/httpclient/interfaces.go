package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP GETs so site adapters can be exercised against stubs.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
