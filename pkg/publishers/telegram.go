package publishers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramClientTimeout = 10 * time.Second

// telegramPublisher posts plain-text messages to a chat or channel through the Bot API.
type telegramPublisher struct {
	id      string
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	log     logger.Logger
}

func newTelegramPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Telegram == nil {
		return nil, fmt.Errorf("publisher %q missing telegram configuration", cfg.ID)
	}

	pub := &telegramPublisher{id: cfg.ID, log: logger.Ensure(log)}
	if strings.HasPrefix(cfg.Telegram.ChatID, "@") {
		pub.channel = cfg.Telegram.ChatID
	} else {
		chatID, err := strconv.ParseInt(cfg.Telegram.ChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.Telegram.ChatID, err)
		}
		pub.chatID = chatID
	}

	// built without getMe so an unreachable Bot API only fails individual sends
	pub.bot = &tgbotapi.BotAPI{
		Token:  cfg.Telegram.BotToken,
		Client: &http.Client{Timeout: telegramClientTimeout},
		Buffer: 100,
	}
	endpoint := tgbotapi.APIEndpoint
	if base := strings.TrimRight(cfg.Telegram.APIURL, "/"); base != "" {
		endpoint = base + "/bot%s/%s"
	}
	pub.bot.SetAPIEndpoint(endpoint)
	return pub, nil
}

func (t *telegramPublisher) ID() string   { return t.id }
func (t *telegramPublisher) Type() string { return TypeTelegram }

// Publish sends msg.Text. The bot client has no context support, so ctx is honoured by
// abandoning the in-flight call.
func (t *telegramPublisher) Publish(ctx context.Context, msg Message) error {
	var out tgbotapi.MessageConfig
	if t.channel != "" {
		out = tgbotapi.NewMessageToChannel(t.channel, msg.Text)
	} else {
		out = tgbotapi.NewMessage(t.chatID, msg.Text)
	}

	type result struct {
		sent tgbotapi.Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		sent, err := t.bot.Send(out)
		done <- result{sent: sent, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("telegram send: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("telegram send: %w", res.err)
		}
		t.log.DebugObj("telegram publisher delivered message", "publisher_telegram_delivery", map[string]any{
			"publisher_id": t.id,
			"promo_id":     msg.PromoID,
			"message_id":   res.sent.MessageID,
		})
		return nil
	}
}
