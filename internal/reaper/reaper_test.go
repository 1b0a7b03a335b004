package reaper_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/internal/reaper"
	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/session"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store, id string, status domain.SubmissionStatus, last time.Time) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &domain.Submission{
		ID:        "sub-" + id,
		FormID:    "f",
		SessionID: id,
		Status:    status,
		Data:      map[string]any{},
		Metadata:  domain.SubmissionMetadata{StartedAt: last, LastActivityAt: last},
	}))
}

func TestSweep(t *testing.T) {
	store := memory.NewStore()
	var abandoned []string
	engine := runtime.NewEngine(memory.NewLoader(), session.NewManager(store), memory.NewCounters(),
		runtime.WithClock(func() time.Time { return t0 }),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnSubmissionAbandon: func(_ context.Context, e *domain.SubmissionEvent) {
				abandoned = append(abandoned, e.SessionID)
			},
		}),
	)

	seed(t, store, "stale", domain.StatusInProgress, t0.Add(-3*time.Hour))
	seed(t, store, "fresh", domain.StatusInProgress, t0.Add(-10*time.Minute))
	seed(t, store, "done", domain.StatusCompleted, t0.Add(-48*time.Hour))

	r := reaper.New(store, engine,
		reaper.WithIdleTimeout(time.Hour),
		reaper.WithClock(func() time.Time { return t0 }),
	)

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"stale"}, abandoned)

	sub, err := store.Load(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAbandoned, sub.Status)

	for _, id := range []string{"fresh", "done"} {
		sub, err := store.Load(context.Background(), id)
		require.NoError(t, err)
		assert.NotEqual(t, domain.StatusAbandoned, sub.Status, id)
	}

	n, err = r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "a second sweep finds nothing new")
}

type countingAbandoner struct {
	calls atomic.Int32
}

func (c *countingAbandoner) Abandon(ctx context.Context, sessionID string) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func TestStart_RunsOnSchedule(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "idle", domain.StatusInProgress, time.Now().Add(-2*time.Hour))
	abandoner := &countingAbandoner{}

	r := reaper.New(store, abandoner,
		reaper.WithIdleTimeout(time.Hour),
		reaper.WithSchedule("@every 1s"),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, r.Start(ctx))
	assert.Error(t, r.Start(ctx), "starting twice fails")

	assert.Eventually(t, func() bool { return abandoner.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	r.Stop()
}

func TestStart_InvalidSchedule(t *testing.T) {
	r := reaper.New(memory.NewStore(), &countingAbandoner{}, reaper.WithSchedule("not a schedule"))
	assert.Error(t, r.Start(context.Background()))
}
