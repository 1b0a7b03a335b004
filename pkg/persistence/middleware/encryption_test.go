package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/persistence/middleware"
	"github.com/aretw0/formflow/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.SubmissionStore, cfg middleware.EncryptionConfig) ports.SubmissionStore {
	t.Helper()
	mw, err := middleware.NewEncryption(cfg)
	require.NoError(t, err)
	return mw(next)
}

func secretSubmission(sessionID string) *domain.Submission {
	now := time.Now().UTC()
	return &domain.Submission{
		ID:        "sub-1",
		FormID:    "signup",
		SessionID: sessionID,
		Status:    domain.StatusInProgress,
		Data:      map[string]any{"email": "ann@example.com"},
		DataOrder: []string{"email"},
		StepHistory: []domain.HistoryEntry{
			{StepID: "ask-email", Answer: "ann@example.com", VariableName: "email", AnsweredAt: now},
		},
		Metadata: domain.SubmissionMetadata{StartedAt: now, LastActivityAt: now},
	}
}

func TestEncryption_Contract(t *testing.T) {
	ports.RunSubmissionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryption_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, store.Create(ctx, secretSubmission("s1")))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Data, "email")
	assert.Contains(t, raw.Data, middleware.EnvelopeKey)
	assert.Empty(t, raw.StepHistory)
	assert.Equal(t, domain.StatusInProgress, raw.Status, "status stays readable")
	assert.False(t, raw.Metadata.LastActivityAt.IsZero(), "metadata stays readable")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", loaded.Data["email"])
	assert.Equal(t, []string{"email"}, loaded.DataOrder)
	require.Len(t, loaded.StepHistory, 1)
	assert.Equal(t, "ann@example.com", loaded.StepHistory[0].Answer)
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Create(ctx, secretSubmission("s1")))

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err, "fallback key decrypts old data")
	assert.Equal(t, "ann@example.com", loaded.Data["email"])

	loaded.Data["email"] = "ann@new.example.com"
	require.NoError(t, newStore.Save(ctx, loaded))

	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "data sealed with the new key is unreadable with the old one")
}

func TestEncryption_RefusesPlainSubmissions(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Create(ctx, secretSubmission("plain")))

	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")

	_, err = store.Load(ctx, "absent")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}

func TestEncryption_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryption(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorContains(t, err, "fallback key #1")
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.DecodeKey("not base64!")
	assert.Error(t, err)

	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorContains(t, err, "32 bytes")
}
