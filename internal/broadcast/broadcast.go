// Package broadcast formats fresh promos and announces them on every notification channel.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/pkg/publishers"
)

const defaultSendTimeout = 5 * time.Second

// FormatMessage renders the announcement text: "title | price | temp" then the link.
func FormatMessage(p domain.Promo) string {
	return p.Title + " | " + p.Price + " | " + p.Temp + "\n" + p.Link
}

// Dispatcher delivers one message to every channel. *publishers.Fanout implements it.
type Dispatcher interface {
	Publish(ctx context.Context, msg publishers.Message, timeout time.Duration) []publishers.Delivery
}

// Report counts deliveries for one broadcast pass.
type Report struct {
	Items   int
	Skipped int
	Sent    int
	Failed  int
	// FailedBy counts failures per publisher id.
	FailedBy map[string]int
}

// Broadcaster sends every promo through the dispatcher.
type Broadcaster struct {
	dispatch Dispatcher
	timeout  time.Duration
	log      logger.Logger
}

// New returns a Broadcaster bounding each send by timeout.
func New(d Dispatcher, timeout time.Duration, log logger.Logger) *Broadcaster {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Broadcaster{dispatch: d, timeout: timeout, log: logger.Ensure(log)}
}

// Broadcast announces items concurrently and returns them unchanged. Send failures are
// logged and counted, never returned.
func (b *Broadcaster) Broadcast(ctx context.Context, items []domain.Promo) ([]domain.Promo, Report) {
	report := Report{FailedBy: map[string]int{}}
	if b == nil || b.dispatch == nil {
		return items, report
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, it := range items {
		if !it.Complete() {
			report.Skipped++
			continue
		}
		report.Items++

		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := publishers.Message{PromoID: it.ID, Text: FormatMessage(it), Link: it.Link}
			deliveries := b.dispatch.Publish(ctx, msg, b.timeout)

			mu.Lock()
			defer mu.Unlock()
			for _, d := range deliveries {
				if d.Err == nil {
					report.Sent++
					continue
				}
				report.Failed++
				report.FailedBy[d.PublisherID]++
				b.log.ErrorObj("broadcast send failed", "send_error", map[string]any{
					"promo_id":       it.ID,
					"publisher_id":   d.PublisherID,
					"publisher_type": d.PublisherType,
					"error":          d.Err.Error(),
				})
			}
		}()
	}
	wg.Wait()

	return items, report
}
