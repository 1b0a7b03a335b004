package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSubmissionStoreContract runs a suite of tests to verify that a SubmissionStore
// implementation adheres to the defined interface contract.
func RunSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405.000000")

	newSubmission := func(id string) *domain.Submission {
		now := time.Now().UTC().Truncate(time.Millisecond)
		return &domain.Submission{
			ID:        "sub-" + id,
			FormID:    "contract-form",
			SessionID: id,
			Status:    domain.StatusInProgress,
			Data:      map[string]any{"name": "Ann"},
			DataOrder: []string{"name"},
			StepHistory: []domain.HistoryEntry{
				{StepID: "ask-name", AnsweredAt: now, Answer: "Ann", VariableName: "name"},
			},
			Metadata: domain.SubmissionMetadata{StartedAt: now, LastActivityAt: now},
		}
	}

	t.Run("Create and Load", func(t *testing.T) {
		sub := newSubmission(sessionID)
		require.NoError(t, store.Create(ctx, sub), "Create should not return error")
		defer func() { _ = store.Delete(ctx, sessionID) }()

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sub.ID, loaded.ID)
		assert.Equal(t, domain.StatusInProgress, loaded.Status)
		assert.Equal(t, "Ann", loaded.Data["name"])
		assert.Equal(t, []string{"name"}, loaded.DataOrder)
		require.Len(t, loaded.StepHistory, 1)
		assert.Equal(t, "ask-name", loaded.StepHistory[0].StepID)
		assert.True(t, sub.Metadata.StartedAt.Equal(loaded.Metadata.StartedAt))
	})

	t.Run("Create Twice", func(t *testing.T) {
		id := sessionID + "-dup"
		require.NoError(t, store.Create(ctx, newSubmission(id)))
		defer func() { _ = store.Delete(ctx, id) }()

		err := store.Create(ctx, newSubmission(id))
		assert.ErrorIs(t, err, domain.ErrSubmissionExists)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		id := sessionID + "-save"
		sub := newSubmission(id)
		require.NoError(t, store.Create(ctx, sub))
		defer func() { _ = store.Delete(ctx, id) }()

		done := time.Now().UTC().Truncate(time.Millisecond)
		sub.Status = domain.StatusCompleted
		sub.Metadata.CompletedAt = &done
		sub.Data["email"] = "ann@example.com"
		require.NoError(t, store.Save(ctx, sub))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, loaded.Status)
		assert.Equal(t, "ann@example.com", loaded.Data["email"])
		require.NotNil(t, loaded.Metadata.CompletedAt)
		assert.True(t, done.Equal(*loaded.Metadata.CompletedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := sessionID + "-del"
		require.NoError(t, store.Create(ctx, newSubmission(id)))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound, "Load after Delete should return ErrSubmissionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Create(ctx, newSubmission(id1)))
		require.NoError(t, store.Create(ctx, newSubmission(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunCounterStoreContract verifies a CounterStore implementation.
func RunCounterStoreContract(t *testing.T, store CounterStore) {
	ctx := context.Background()
	formID := "contract-form-" + time.Now().Format("20060102150405.000000")

	t.Run("Unknown Form Is Zero", func(t *testing.T) {
		c, err := store.Get(ctx, "unknown-"+formID)
		require.NoError(t, err)
		assert.Equal(t, domain.Counters{}, c)
	})

	t.Run("Increment", func(t *testing.T) {
		c, err := store.Increment(ctx, formID, domain.CounterStarts)
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.Starts)

		_, err = store.Increment(ctx, formID, domain.CounterStarts)
		require.NoError(t, err)
		c, err = store.Increment(ctx, formID, domain.CounterCompletions)
		require.NoError(t, err)
		assert.Equal(t, int64(2), c.Starts)
		assert.Equal(t, int64(1), c.Completions)
		assert.InDelta(t, 0.5, c.CompletionRate(), 1e-9)

		got, err := store.Get(ctx, formID)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	})
}

// RunFormLoaderContract verifies a FormLoader that was seeded with the given forms.
func RunFormLoaderContract(t *testing.T, loader FormLoader, seeded []domain.Form) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetForm", func(t *testing.T) {
		for _, want := range seeded {
			got, err := loader.GetForm(ctx, want.ID)
			require.NoError(t, err, "form %s", want.ID)
			assert.Equal(t, want.ID, got.ID)
			assert.Len(t, got.Steps, len(want.Steps))
		}
	})

	t.Run("GetForm By Public ID", func(t *testing.T) {
		for _, want := range seeded {
			if want.PublicID == "" {
				continue
			}
			got, err := loader.GetForm(ctx, want.PublicID)
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
		}
	})

	t.Run("GetForm Not Found", func(t *testing.T) {
		_, err := loader.GetForm(ctx, "non-existent-form")
		assert.ErrorIs(t, err, domain.ErrFormNotFound)
	})

	t.Run("ListForms", func(t *testing.T) {
		ids, err := loader.ListForms(ctx)
		require.NoError(t, err)
		for _, f := range seeded {
			assert.Contains(t, ids, f.ID)
		}
	})
}
