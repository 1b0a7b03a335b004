package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/adapters/redis"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunSubmissionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisCounters_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunCounterStoreContract(t, redis.NewCounters(client, ""))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	sub := &domain.Submission{ID: "sub", FormID: "f", SessionID: "session-ttl", Status: domain.StatusInProgress}
	require.NoError(t, store.Create(ctx, sub))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, "session-ttl")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	// The index is pruned against wall-clock time.
	time.Sleep(1200 * time.Millisecond)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Submission{SessionID: "my-session"}))

	assert.True(t, mr.Exists("custom:app:submission:my-session"))
	assert.True(t, mr.Exists("custom:app:submission:index"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, "my-session")
}

func TestRedisCounters_Layout(t *testing.T) {
	mr, client := setup(t)
	counters := redis.NewCounters(client, "ff:")
	ctx := context.Background()

	_, err := counters.Increment(ctx, "signup", domain.CounterViews)
	require.NoError(t, err)
	assert.Equal(t, "1", mr.HGet("ff:counters:signup", "views"))

	mr.HSet("ff:counters:broken", "starts", "x")
	_, err = counters.Get(ctx, "broken")
	assert.Error(t, err)
}
