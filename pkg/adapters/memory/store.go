package memory

import (
	"context"
	"sync"

	"github.com/aretw0/formflow/pkg/domain"
)

// Store implements ports.SubmissionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Submission
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Submission),
	}
}

// Create stores a new submission, refusing to overwrite an existing session.
func (s *Store) Create(ctx context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[sub.SessionID]; ok {
		return domain.ErrSubmissionExists
	}
	// Copy to ensure isolation, similar to serialization
	s.data[sub.SessionID] = sub.Clone()
	return nil
}

// Save persists the submission in memory.
func (s *Store) Save(ctx context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sub.SessionID] = sub.Clone()
	return nil
}

// Load retrieves the submission from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	// Copy on read so callers can't mutate store state directly by pointer
	return sub.Clone(), nil
}

// Delete removes the submission.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
