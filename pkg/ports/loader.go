package ports

import (
	"context"

	"github.com/aretw0/formflow/pkg/domain"
)

// FormLoader defines how the engine retrieves form definitions.
// This allows the storage layer (files, Loam, memory) to be decoupled.
type FormLoader interface {
	// GetForm returns the form whose ID or public ID matches key.
	// Returns domain.ErrFormNotFound if nothing matches.
	GetForm(ctx context.Context, key string) (*domain.Form, error)

	// ListForms returns the IDs of every form the loader knows about.
	// This is used for introspection tools (e.g. 'formflow validate').
	ListForms(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload in dev mode.
type Watchable interface {
	// Watch returns a channel that receives the ID of each changed form.
	Watch(ctx context.Context) (<-chan string, error)
}
