package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"
)

const twitterDefaultAPIURL = "https://api.twitter.com/2/tweets"

// twitterPublisher posts tweets with OAuth 1.0a user-context signing.
type twitterPublisher struct {
	id     string
	url    string
	client *resty.Client
	log    logger.Logger
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func newTwitterPublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Twitter == nil {
		return nil, fmt.Errorf("publisher %q missing twitter configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := cfg.Twitter
	signer := oauth1.NewConfig(c.ConsumerKey, c.ConsumerSecret)
	httpClient := signer.Client(ctx, oauth1.NewToken(c.AccessToken, c.AccessSecret))

	url := c.APIURL
	if url == "" {
		url = twitterDefaultAPIURL
	}

	return &twitterPublisher{
		id:     cfg.ID,
		url:    url,
		client: resty.NewWithClient(httpClient).SetTimeout(httpDefaultTimeoutSeconds * time.Second),
		log:    logger.Ensure(log),
	}, nil
}

func (t *twitterPublisher) ID() string   { return t.id }
func (t *twitterPublisher) Type() string { return TypeTwitter }

func (t *twitterPublisher) Publish(ctx context.Context, msg Message) error {
	var out tweetResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": msg.Text}).
		SetResult(&out).
		Post(t.url)
	if err != nil {
		return fmt.Errorf("twitter request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twitter response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	t.log.DebugObj("twitter publisher delivered message", "publisher_twitter_delivery", map[string]any{
		"publisher_id": t.id,
		"promo_id":     msg.PromoID,
		"tweet_id":     out.Data.ID,
	})
	return nil
}
