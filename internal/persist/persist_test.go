package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/config"
	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/Adda-Baaj/hot-promos/internal/retry"
	"github.com/Adda-Baaj/hot-promos/internal/storage"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first failures[id] puts for an id, and always fails ids in broken.
type flakyStore struct {
	*storage.MemoryStore
	mu       sync.Mutex
	failures map[string]int
	broken   map[string]bool
	calls    map[string]int
	hang     bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		MemoryStore: storage.NewMemoryStore(),
		failures:    map[string]int{},
		broken:      map[string]bool{},
		calls:       map[string]int{},
	}
}

func (f *flakyStore) Put(ctx context.Context, p domain.Promo) error {
	f.mu.Lock()
	f.calls[p.ID]++
	fail := f.broken[p.ID]
	if f.failures[p.ID] > 0 {
		f.failures[p.ID]--
		fail = true
	}
	hang := f.hang
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return errors.New("throttled")
	}
	return f.MemoryStore.Put(ctx, p)
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func promo(id string) domain.Promo {
	return domain.Promo{ID: id, Title: "Deal " + id, Link: "https://deals.example/" + id}
}

func TestPersistSkipsItemsWithoutLink(t *testing.T) {
	store := newFlakyStore()
	p := New(store, Options{Retry: fastRetry()}, nil)

	noLink := promo("2")
	noLink.Link = ""
	written, report, err := p.Persist(context.Background(), []domain.Promo{promo("1"), noLink, promo("3")})
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 2, report.Persisted)
	require.Equal(t, []string{"1", "3"}, []string{written[0].ID, written[1].ID})
	require.Zero(t, store.calls["2"])
	require.Equal(t, 2, store.Len())
}

func TestPersistRetriesTransientFailures(t *testing.T) {
	store := newFlakyStore()
	store.failures["1"] = 2
	p := New(store, Options{Retry: fastRetry()}, nil)

	written, report, err := p.Persist(context.Background(), []domain.Promo{promo("1")})
	require.NoError(t, err)
	require.Len(t, written, 1)
	require.Equal(t, 3, store.calls["1"])
	require.Zero(t, report.Failed)
}

func TestPersistReportPolicyExcludesFailedItems(t *testing.T) {
	store := newFlakyStore()
	store.broken["2"] = true
	p := New(store, Options{Retry: fastRetry(), FailurePolicy: config.PolicyReport}, nil)

	written, report, err := p.Persist(context.Background(), []domain.Promo{promo("1"), promo("2"), promo("3")})
	require.NoError(t, err)
	require.Equal(t, 2, report.Persisted)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, []string{"2"}, report.FailedIDs)
	require.Equal(t, "1", written[0].ID)
	require.Equal(t, "3", written[1].ID)
}

func TestPersistAbortPolicyFailsRun(t *testing.T) {
	store := newFlakyStore()
	store.broken["2"] = true
	p := New(store, Options{Retry: fastRetry(), FailurePolicy: config.PolicyAbort}, nil)

	written, report, err := p.Persist(context.Background(), []domain.Promo{promo("1"), promo("2")})
	require.Error(t, err)
	require.ErrorIs(t, err, retry.ErrAttemptsExhausted)
	require.Nil(t, written)
	require.Equal(t, 1, report.Failed)
}

func TestPersistBoundsEachAttempt(t *testing.T) {
	store := newFlakyStore()
	store.hang = true
	p := New(store, Options{
		WriteTimeout:  10 * time.Millisecond,
		Retry:         retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond},
		FailurePolicy: config.PolicyAbort,
	}, nil)

	start := time.Now()
	_, _, err := p.Persist(context.Background(), []domain.Promo{promo("1")})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, 2, store.calls["1"])
}
