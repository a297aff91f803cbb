package publishers

import "context"

// Message is the notification delivered for one promo. Every channel receives the same Text.
type Message struct {
	PromoID string `json:"promo_id"`
	Text    string `json:"text"`
	Link    string `json:"link"`
}

// Publisher sends messages to a notification channel (Telegram, Twitter, SQS, HTTP, etc).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, msg Message) error
}
