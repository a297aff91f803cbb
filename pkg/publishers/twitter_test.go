package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTwitterPublisherSignsAndPosts(t *testing.T) {
	var (
		auth string
		body map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1790","text":"ok"}}`))
	}))
	defer srv.Close()

	pub, err := newTwitterPublisher(context.Background(), PublisherConfig{
		ID:   "tw",
		Type: TypeTwitter,
		Twitter: &TwitterPublisherConfig{
			ConsumerKey:    "ck",
			ConsumerSecret: "cs",
			AccessToken:    "at",
			AccessSecret:   "as",
			APIURL:         srv.URL + "/2/tweets",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newTwitterPublisher: %v", err)
	}

	if err := pub.Publish(context.Background(), Message{Text: "Deal | 1 | 2\nhttp://x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, `oauth_consumer_key="ck"`) {
		t.Fatalf("request not oauth1 signed: %q", auth)
	}
	if body["text"] != "Deal | 1 | 2\nhttp://x" {
		t.Fatalf("unexpected tweet body %#v", body)
	}
}

func TestTwitterPublisherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"duplicate content"}`))
	}))
	defer srv.Close()

	pub, err := newTwitterPublisher(context.Background(), PublisherConfig{
		ID:      "tw",
		Type:    TypeTwitter,
		Twitter: &TwitterPublisherConfig{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as", APIURL: srv.URL},
	}, nil)
	if err != nil {
		t.Fatalf("newTwitterPublisher: %v", err)
	}
	err = pub.Publish(context.Background(), Message{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "duplicate content") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}
