package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/broadcast"
	"github.com/Adda-Baaj/hot-promos/internal/crawler"
	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/internal/persist"
	"github.com/Adda-Baaj/hot-promos/internal/retry"
	"github.com/Adda-Baaj/hot-promos/internal/storage"
	"github.com/Adda-Baaj/hot-promos/pkg/providers"
	"github.com/Adda-Baaj/hot-promos/pkg/publishers"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	batch crawler.Batch
	err   error
}

func (s stubCollector) Collect(context.Context, []providers.Provider) (crawler.Batch, error) {
	return s.batch, s.err
}

// countingStore wraps a MemoryStore and counts calls.
type countingStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	scans   int
	puts    int
	scanErr error
	putErr  error
}

func (c *countingStore) ScanAll(ctx context.Context) ([]domain.Promo, error) {
	c.mu.Lock()
	c.scans++
	c.mu.Unlock()
	if c.scanErr != nil {
		return nil, c.scanErr
	}
	return c.MemoryStore.ScanAll(ctx)
}

func (c *countingStore) Put(ctx context.Context, p domain.Promo) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	return c.MemoryStore.Put(ctx, p)
}

type recordingPublisher struct {
	id   string
	mu   sync.Mutex
	msgs []publishers.Message
}

func (r *recordingPublisher) ID() string   { return r.id }
func (r *recordingPublisher) Type() string { return "test" }
func (r *recordingPublisher) Publish(_ context.Context, msg publishers.Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return nil
}

func newTestPipeline(t *testing.T, col Collector, store *countingStore, policy string, pubs ...*recordingPublisher) *Pipeline {
	t.Helper()
	sinks := make([]publishers.Publisher, 0, len(pubs))
	for _, pub := range pubs {
		sinks = append(sinks, pub)
	}
	p, err := New(Deps{
		Providers: []providers.Provider{{ID: "p"}},
		Collector: col,
		History:   store,
		Persister: persist.New(store, persist.Options{
			Retry:         retry.Policy{MaxAttempts: 1},
			FailurePolicy: policy,
		}, nil),
		Broadcaster: broadcast.New(publishers.NewFanout(sinks), time.Second, nil),
	})
	require.NoError(t, err)
	return p
}

func TestRunEndToEnd(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	telegram := &recordingPublisher{id: "telegram"}
	twitter := &recordingPublisher{id: "twitter"}
	col := stubCollector{batch: crawler.Batch{Pages: [][]domain.Promo{{
		{ID: "1", Title: "Deal A", Link: "http://x/1"},
		{ID: "1", Title: "Deal A", Link: "http://x/1"},
	}}}}

	res := newTestPipeline(t, col, store, "report", telegram, twitter).Run(context.Background())

	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, "Elements saved successfully", res.Body)
	require.Equal(t, 2, res.Summary.Collected)
	require.Equal(t, 1, res.Summary.Unique)
	require.Equal(t, 1, store.puts)
	require.Equal(t, 1, store.Len())
	for _, pub := range []*recordingPublisher{telegram, twitter} {
		require.Len(t, pub.msgs, 1, pub.id)
		require.Equal(t, "Deal A |  | \nhttp://x/1", pub.msgs[0].Text, pub.id)
		require.Equal(t, "1", pub.msgs[0].PromoID, pub.id)
	}
	require.Equal(t, 1, res.Summary.Persisted)
	require.Equal(t, 2, res.Summary.Sent)
}

func TestRunDeduplicatesAgainstBatchAndHistory(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore(
		domain.Promo{ID: "1", Title: "X", Link: "http://x/old"},
	)}
	pub := &recordingPublisher{id: "rec"}
	col := stubCollector{batch: crawler.Batch{Pages: [][]domain.Promo{
		{{ID: "1", Title: "Y", Link: "http://x/1"}, {ID: "2", Title: "X", Link: "http://x/2"}},
		{{ID: "3", Title: "Z", Link: "http://x/3"}, {ID: "3", Title: "Z", Link: "http://x/3"}},
	}}}

	res := newTestPipeline(t, col, store, "report", pub).Run(context.Background())

	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, 4, res.Summary.Collected)
	require.Equal(t, 3, res.Summary.Unique)
	require.Equal(t, 1, res.Summary.Fresh)
	require.Len(t, pub.msgs, 1)
	require.Equal(t, "3", pub.msgs[0].PromoID)
	require.Equal(t, 2, store.Len())
}

func TestRunStopsAfterFetchError(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	pub := &recordingPublisher{id: "rec"}
	col := stubCollector{err: errors.New("status 503"), batch: crawler.Batch{Failed: 1}}

	res := newTestPipeline(t, col, store, "report", pub).Run(context.Background())

	require.Equal(t, 403, res.StatusCode)
	require.True(t, strings.HasPrefix(res.Body, "There was an error on the request: "))
	require.Contains(t, res.Body, "status 503")
	require.ErrorIs(t, res.Err, ErrFetch)

	var se *StageError
	require.ErrorAs(t, res.Err, &se)
	require.Equal(t, StageCollect, se.Stage)

	require.Zero(t, store.scans)
	require.Zero(t, store.puts)
	require.Empty(t, pub.msgs)
	require.Equal(t, 1, res.Summary.PagesFailed)
}

func TestRunStoreReadError(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore(), scanErr: errors.New("table missing")}
	pub := &recordingPublisher{id: "rec"}
	col := stubCollector{batch: crawler.Batch{Pages: [][]domain.Promo{{{ID: "1", Title: "A", Link: "http://x/1"}}}}}

	res := newTestPipeline(t, col, store, "report", pub).Run(context.Background())

	require.Equal(t, 403, res.StatusCode)
	require.ErrorIs(t, res.Err, ErrStoreRead)
	require.Zero(t, store.puts)
	require.Empty(t, pub.msgs)
}

func TestRunStoreWriteAbortPolicy(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore(), putErr: errors.New("throttled")}
	pub := &recordingPublisher{id: "rec"}
	col := stubCollector{batch: crawler.Batch{Pages: [][]domain.Promo{{{ID: "1", Title: "A", Link: "http://x/1"}}}}}

	res := newTestPipeline(t, col, store, "abort", pub).Run(context.Background())

	require.Equal(t, 403, res.StatusCode)
	require.ErrorIs(t, res.Err, ErrStoreWrite)
	require.Empty(t, pub.msgs)
}

func TestRunStoreWriteReportPolicyKeepsGoing(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore(), putErr: errors.New("throttled")}
	pub := &recordingPublisher{id: "rec"}
	col := stubCollector{batch: crawler.Batch{Pages: [][]domain.Promo{{{ID: "1", Title: "A", Link: "http://x/1"}}}}}

	res := newTestPipeline(t, col, store, "report", pub).Run(context.Background())

	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, 1, res.Summary.PersistFailed)
	require.Empty(t, pub.msgs)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
}
