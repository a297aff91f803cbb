// Package persist writes fresh promos to the store concurrently with per-item retries.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/config"
	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/internal/retry"
	"github.com/Adda-Baaj/hot-promos/internal/storage"
	"golang.org/x/sync/errgroup"
)

const defaultWriteTimeout = 5 * time.Second

// Options configure write behavior.
type Options struct {
	// WriteTimeout bounds a single Put attempt.
	WriteTimeout  time.Duration
	Retry         retry.Policy
	FailurePolicy string
}

// Report summarizes a persist pass.
type Report struct {
	Persisted int
	Failed    int
	Skipped   int
	FailedIDs []string
}

// Persister writes promos through a storage.Store.
type Persister struct {
	store storage.Store
	opts  Options
	log   logger.Logger
}

// New returns a Persister for store.
func New(store storage.Store, opts Options, log logger.Logger) *Persister {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.PolicyReport
	}
	return &Persister{store: store, opts: opts, log: logger.Ensure(log)}
}

// Persist writes every item that has a link and returns the written ones in input order.
// Under the abort policy any item that still fails after retries fails the whole call.
func (p *Persister) Persist(ctx context.Context, items []domain.Promo) ([]domain.Promo, Report, error) {
	if p == nil || p.store == nil {
		return nil, Report{}, fmt.Errorf("persister is not initialized")
	}

	var report Report
	eligible := make([]domain.Promo, 0, len(items))
	for _, it := range items {
		if !it.Complete() {
			report.Skipped++
			continue
		}
		eligible = append(eligible, it)
	}

	errs := make([]error, len(eligible))
	var g errgroup.Group
	for i, it := range eligible {
		g.Go(func() error {
			errs[i] = p.write(ctx, it)
			return nil
		})
	}
	_ = g.Wait()

	written := make([]domain.Promo, 0, len(eligible))
	var failures []error
	for i, it := range eligible {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			report.FailedIDs = append(report.FailedIDs, it.ID)
			p.log.ErrorObj("promo write failed", "store_error", map[string]any{
				"promo_id": it.ID,
				"title":    it.Title,
				"error":    errs[i].Error(),
			})
			continue
		}
		written = append(written, it)
	}
	report.Persisted = len(written)
	report.Failed = len(failures)

	if len(failures) > 0 && p.opts.FailurePolicy == config.PolicyAbort {
		return nil, report, errors.Join(failures...)
	}
	return written, report, nil
}

func (p *Persister) write(ctx context.Context, it domain.Promo) error {
	policy := p.opts.Retry
	policy.Retryable = func(err error) bool {
		return !errors.Is(err, storage.ErrIncompleteRecord)
	}
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		p.log.WarnObj("retrying promo write", "store_retry", map[string]any{
			"promo_id": it.ID,
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	}

	_, err := retry.Do(ctx, policy, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.opts.WriteTimeout)
		defer cancel()
		return p.store.Put(attemptCtx, it)
	})
	if err != nil {
		return fmt.Errorf("put promo %s: %w", it.ID, err)
	}
	return nil
}
