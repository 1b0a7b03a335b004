package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/persistence/middleware"
)

func TestPII_MasksMatchingVariables(t *testing.T) {
	ctx := context.Background()
	mw, err := middleware.NewPII([]string{"^email$", "password"})
	require.NoError(t, err)
	store := mw(memory.NewStore())

	sub := secretSubmission("pii-session")
	sub.Data["password_hint"] = "cat"
	sub.Data["plan"] = "pro"
	require.NoError(t, store.Create(ctx, sub))

	loaded, err := store.Load(ctx, "pii-session")
	require.NoError(t, err)
	assert.Equal(t, middleware.Masked, loaded.Data["email"])
	assert.Equal(t, middleware.Masked, loaded.Data["password_hint"])
	assert.Equal(t, "pro", loaded.Data["plan"])
	assert.Equal(t, middleware.Masked, loaded.StepHistory[0].Answer)

	assert.Equal(t, "ann@example.com", sub.Data["email"], "caller's submission is untouched")
}

func TestPII_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPII([]string{"("})
	assert.ErrorContains(t, err, "invalid mask pattern")
}

func TestChain_MaskThenEncrypt(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()

	pii, err := middleware.NewPII([]string{"email"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	require.NoError(t, store.Create(ctx, secretSubmission("chained")))

	raw, err := underlying.Load(ctx, "chained")
	require.NoError(t, err)
	assert.Contains(t, raw.Data, middleware.EnvelopeKey)

	loaded, err := store.Load(ctx, "chained")
	require.NoError(t, err)
	assert.Equal(t, middleware.Masked, loaded.Data["email"])

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chained"}, ids)

	require.NoError(t, store.Delete(ctx, "chained"))
	_, err = store.Load(ctx, "chained")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}
