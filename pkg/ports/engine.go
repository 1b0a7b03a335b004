package ports

import (
	"context"

	"github.com/aretw0/formflow/pkg/domain"
)

// FlowEngine is the surface consumed by driving adapters (HTTP, MCP, CLI).
type FlowEngine interface {
	// StartOrResume opens a session. An empty sessionID starts a new one.
	StartOrResume(ctx context.Context, formID, sessionID string) (*domain.StartResult, error)

	// SubmitAnswer validates and records one answer and resolves the next step.
	SubmitAnswer(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error)

	// Inspect returns the full form definition for visualization or introspection tools.
	Inspect(ctx context.Context, formID string) (*domain.Form, error)
}
