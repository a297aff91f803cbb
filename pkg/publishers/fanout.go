package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Delivery is the outcome of sending one message through one publisher.
type Delivery struct {
	PublisherID   string
	PublisherType string
	Err           error
}

// Fanout dispatches messages to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out messages across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish sends msg to every publisher concurrently, each bounded by timeout when positive.
// One delivery per publisher is returned in registration order; a failing publisher never
// affects the others.
func (f *Fanout) Publish(ctx context.Context, msg Message, timeout time.Duration) []Delivery {
	if f == nil || len(f.publishers) == 0 {
		return nil
	}

	out := make([]Delivery, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = Delivery{PublisherID: p.ID(), PublisherType: p.Type(), Err: send(ctx, p, msg, timeout)}
		}()
	}
	wg.Wait()
	return out
}

func send(ctx context.Context, p Publisher, msg Message, timeout time.Duration) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s publisher[%s] panicked: %v", p.Type(), p.ID(), r)
		}
	}()
	if err := p.Publish(ctx, msg); err != nil {
		return fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
	}
	return nil
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases publishers that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
