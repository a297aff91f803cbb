// Package pipeline runs one discover, deduplicate, persist, broadcast pass.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/broadcast"
	"github.com/Adda-Baaj/hot-promos/internal/crawler"
	"github.com/Adda-Baaj/hot-promos/internal/dedup"
	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/internal/persist"
	"github.com/Adda-Baaj/hot-promos/pkg/providers"
)

// Status codes and bodies returned to the trigger.
const (
	StatusOK        = 200
	StatusFailed    = 403
	SuccessBody     = "Elements saved successfully"
	failureBodyHead = "There was an error on the request: "
)

const defaultHistoryTimeout = 20 * time.Second

// Collector downloads listing pages.
type Collector interface {
	Collect(ctx context.Context, cfgs []providers.Provider) (crawler.Batch, error)
}

// History reads every previously stored promo.
type History interface {
	ScanAll(ctx context.Context) ([]domain.Promo, error)
}

// Persister writes fresh promos.
type Persister interface {
	Persist(ctx context.Context, items []domain.Promo) ([]domain.Promo, persist.Report, error)
}

// Broadcaster announces persisted promos.
type Broadcaster interface {
	Broadcast(ctx context.Context, items []domain.Promo) ([]domain.Promo, broadcast.Report)
}

// Deps are the collaborators of a run.
type Deps struct {
	Providers      []providers.Provider
	Collector      Collector
	History        History
	Persister      Persister
	Broadcaster    Broadcaster
	HistoryTimeout time.Duration
	Log            logger.Logger
}

// Summary reports item counts per stage.
type Summary struct {
	Collected     int    `json:"collected"`
	Unique        int    `json:"unique"`
	History       int    `json:"history"`
	Fresh         int    `json:"fresh"`
	Persisted     int    `json:"persisted"`
	PersistFailed int    `json:"persist_failed"`
	Skipped       int    `json:"skipped"`
	Sent          int    `json:"sent"`
	SendFailed    int    `json:"send_failed"`
	PagesFailed   int    `json:"pages_failed"`
	Elapsed       string `json:"elapsed"`
}

// Result is what the trigger receives.
type Result struct {
	StatusCode int     `json:"statusCode"`
	Body       string  `json:"body"`
	Summary    Summary `json:"summary"`
	Err        error   `json:"-"`
}

// Pipeline chains the stages; the first failing stage aborts the rest.
type Pipeline struct {
	deps Deps
	log  logger.Logger
}

// New validates deps and builds a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Collector == nil || deps.History == nil || deps.Persister == nil || deps.Broadcaster == nil {
		return nil, errors.New("pipeline requires collector, history, persister and broadcaster")
	}
	if deps.HistoryTimeout <= 0 {
		deps.HistoryTimeout = defaultHistoryTimeout
	}
	return &Pipeline{deps: deps, log: logger.Ensure(deps.Log)}, nil
}

// Run executes one pass and maps the outcome to a status code and body.
func (p *Pipeline) Run(ctx context.Context) Result {
	start := time.Now()
	var sum Summary

	err := p.run(ctx, &sum)
	sum.Elapsed = time.Since(start).String()

	if err != nil {
		var se *StageError
		stage := ""
		if errors.As(err, &se) {
			stage = se.Stage
		}
		p.log.ErrorObj("pipeline run failed", "run_error", map[string]any{
			"stage":   stage,
			"class":   classify(err),
			"error":   err.Error(),
			"summary": sum,
		})
		res := Failure(err)
		res.Summary = sum
		return res
	}

	p.log.InfoObj("pipeline run completed", "summary", sum)
	return Result{StatusCode: StatusOK, Body: SuccessBody, Summary: sum}
}

// Failure maps err to the failed-run response.
func Failure(err error) Result {
	return Result{StatusCode: StatusFailed, Body: failureBodyHead + err.Error(), Err: err}
}

func (p *Pipeline) run(ctx context.Context, sum *Summary) error {
	var (
		batch crawler.Batch
		items []domain.Promo
	)

	err := p.stage(StageCollect, func() (int, error) {
		var err error
		batch, err = p.deps.Collector.Collect(ctx, p.deps.Providers)
		sum.PagesFailed = batch.Failed
		if err != nil {
			return 0, stageErr(StageCollect, ErrFetch, err)
		}
		return len(batch.Pages), nil
	})
	if err != nil {
		return err
	}

	_ = p.stage(StageMerge, func() (int, error) {
		items = batch.Merge()
		sum.Collected = len(items)
		return len(items), nil
	})

	_ = p.stage(StageDedupeBatch, func() (int, error) {
		items = dedup.Batch(items)
		sum.Unique = len(items)
		return len(items), nil
	})

	var history []domain.Promo
	err = p.stage(StageFetchHistory, func() (int, error) {
		readCtx, cancel := context.WithTimeout(ctx, p.deps.HistoryTimeout)
		defer cancel()
		var err error
		history, err = p.deps.History.ScanAll(readCtx)
		if err != nil {
			return 0, stageErr(StageFetchHistory, ErrStoreRead, err)
		}
		sum.History = len(history)
		return len(history), nil
	})
	if err != nil {
		return err
	}

	_ = p.stage(StageDedupeHistory, func() (int, error) {
		items = dedup.AgainstHistory(items, history)
		sum.Fresh = len(items)
		return len(items), nil
	})

	err = p.stage(StagePersist, func() (int, error) {
		written, report, err := p.deps.Persister.Persist(ctx, items)
		sum.Persisted = report.Persisted
		sum.PersistFailed = report.Failed
		sum.Skipped = report.Skipped
		if err != nil {
			return 0, stageErr(StagePersist, ErrStoreWrite, err)
		}
		items = written
		return len(written), nil
	})
	if err != nil {
		return err
	}

	_ = p.stage(StageBroadcast, func() (int, error) {
		_, report := p.deps.Broadcaster.Broadcast(ctx, items)
		sum.Sent = report.Sent
		sum.SendFailed = report.Failed
		return report.Items, nil
	})
	return nil
}

func (p *Pipeline) stage(name string, fn func() (int, error)) error {
	start := time.Now()
	n, err := fn()
	fields := map[string]any{
		"stage":      name,
		"items":      n,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		p.log.WarnObj("pipeline stage failed", "stage", fields)
		return err
	}
	p.log.InfoObj("pipeline stage completed", "stage", fields)
	return nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrStoreRead):
		return "store_read"
	case errors.Is(err, ErrStoreWrite):
		return "store_write"
	default:
		return "unknown"
	}
}
