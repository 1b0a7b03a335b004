package ports

import (
	"context"

	"github.com/aretw0/formflow/pkg/domain"
)

// SubmissionStore persists submissions keyed by session ID.
// Implementations do not need to serialize writers; the session manager does.
type SubmissionStore interface {
	// Load retrieves the submission for a session.
	// Returns domain.ErrSubmissionNotFound if the session has none.
	Load(ctx context.Context, sessionID string) (*domain.Submission, error)

	// Create persists a new submission.
	// Returns domain.ErrSubmissionExists if the session already has one.
	Create(ctx context.Context, sub *domain.Submission) error

	// Save overwrites an existing submission.
	Save(ctx context.Context, sub *domain.Submission) error

	// Delete removes the submission for a session. Deleting a missing one is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the session IDs of every stored submission.
	List(ctx context.Context) ([]string, error)
}

// CounterStore holds the per-form totals mutated by lifecycle commands.
type CounterStore interface {
	// Increment bumps counter by one and returns the totals after the increment.
	Increment(ctx context.Context, formID string, counter domain.Counter) (domain.Counters, error)

	// Get returns the totals for a form. Unknown forms have zero totals.
	Get(ctx context.Context, formID string) (domain.Counters, error)
}
