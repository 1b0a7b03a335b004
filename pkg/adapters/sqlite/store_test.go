package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/adapters/sqlite"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

func open(t *testing.T) (*sqlite.Store, *sqlite.Counters) {
	t.Helper()
	store, counters, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, counters
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := open(t)
	ports.RunSubmissionStoreContract(t, store)
}

func TestSQLiteCounters_Contract(t *testing.T) {
	_, counters := open(t)
	ports.RunCounterStoreContract(t, counters)
}

func TestSQLiteStore_ListByStatus(t *testing.T) {
	store, _ := open(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"newer", "older", "done"} {
		sub := &domain.Submission{ID: "sub-" + id, FormID: "f", SessionID: id, Status: domain.StatusInProgress}
		sub.Metadata.LastActivityAt = base.Add(-time.Duration(i) * time.Hour)
		if id == "done" {
			sub.Status = domain.StatusCompleted
		}
		require.NoError(t, store.Create(ctx, sub))
	}

	ids, err := store.ListByStatus(ctx, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, []string{"older", "newer"}, ids)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "formflow.db")
	ctx := context.Background()

	store, counters, err := sqlite.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &domain.Submission{ID: "a", SessionID: "s", Status: domain.StatusInProgress}))
	_, err = counters.Increment(ctx, "f", domain.CounterViews)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, counters, err = sqlite.Open(dsn)
	require.NoError(t, err)
	defer store.Close()

	sub, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "a", sub.ID)

	c, err := counters.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Views)
}
