package ports

import (
	"context"

	"github.com/aretw0/formflow/pkg/domain"
)

// ActionDispatcher accepts post-completion jobs.
// Enqueue must return quickly; execution happens off the request path.
type ActionDispatcher interface {
	Enqueue(ctx context.Context, job domain.DispatchJob) error
}
