package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// EnvelopeKey is the Data key holding the sealed answers of an encrypted submission.
const EnvelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// sealed is the encrypted part of a submission. Identity, status and
// metadata stay readable so listing and the reaper keep working.
type sealed struct {
	Data        map[string]any        `json:"data"`
	DataOrder   []string              `json:"dataOrder,omitempty"`
	StepHistory []domain.HistoryEntry `json:"stepHistory"`
}

type encryptionMiddleware struct {
	next   ports.SubmissionStore
	config EncryptionConfig
}

// NewEncryption creates a middleware that seals collected answers using AES-GCM.
func NewEncryption(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key #%d must be 32 bytes (AES-256)", i+1)
		}
	}
	return func(next ports.SubmissionStore) ports.SubmissionStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Create(ctx context.Context, sub *domain.Submission) error {
	envelope, err := m.seal(sub)
	if err != nil {
		return err
	}
	return m.next.Create(ctx, envelope)
}

func (m *encryptionMiddleware) Save(ctx context.Context, sub *domain.Submission) error {
	envelope, err := m.seal(sub)
	if err != nil {
		return err
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.Data[EnvelopeKey].(string)
	if !ok {
		// Plain submissions are refused once encryption is configured.
		return nil, fmt.Errorf("submission %s is missing encrypted data envelope", sessionID)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt submission %s: %w", sessionID, err)
	}

	var body sealed
	if err := json.Unmarshal(plain, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted submission: %w", err)
	}

	out := envelope.Clone()
	out.Data = body.Data
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	out.DataOrder = body.DataOrder
	out.StepHistory = body.StepHistory
	return out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) seal(sub *domain.Submission) (*domain.Submission, error) {
	plain, err := json.Marshal(sealed{Data: sub.Data, DataOrder: sub.DataOrder, StepHistory: sub.StepHistory})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}
	ciphertext, err := encrypt(plain, m.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt submission: %w", err)
	}

	envelope := sub.Clone()
	envelope.Data = map[string]any{EnvelopeKey: base64.StdEncoding.EncodeToString(ciphertext)}
	envelope.DataOrder = nil
	envelope.StepHistory = nil
	return envelope, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// DecodeKey parses a base64 encoded AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
