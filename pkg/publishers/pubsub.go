package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"google.golang.org/api/option"
)

// pubSubPublisher implements the Publisher interface for a Google Cloud Pub/Sub topic.
type pubSubPublisher struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    logger.Logger
}

// newPubSubPublisher honours PUBSUB_EMULATOR_HOST through the client library.
func newPubSubPublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("publisher %q missing pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubSubPublisher{
		id:     cfg.ID,
		client: client,
		topic:  client.Topic(cfg.PubSub.Topic),
		log:    logger.Ensure(log),
	}, nil
}

func (p *pubSubPublisher) ID() string   { return p.id }
func (p *pubSubPublisher) Type() string { return TypePubSub }

// Publish waits for the server acknowledgement.
func (p *pubSubPublisher) Publish(ctx context.Context, msg Message) error {
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(msg.Text),
		Attributes: map[string]string{"promo_id": msg.PromoID},
	})
	serverID, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish to pubsub topic %s: %w", p.topic.ID(), err)
	}
	p.log.DebugObj("pubsub publisher delivered message", "publisher_pubsub_delivery", map[string]any{
		"publisher_id": p.id,
		"promo_id":     msg.PromoID,
		"server_id":    serverID,
	})
	return nil
}

func (p *pubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
