package runner

import (
	"context"

	"github.com/aretw0/formflow/pkg/domain"
)

// IOHandler defines the strategy for interacting with the respondent.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a rendered step to the respondent.
	Output(ctx context.Context, step *domain.StepView) error

	// Input reads an answer for the step last presented.
	// Returns io.EOF when the respondent stream is closed.
	Input(ctx context.Context, step *domain.StepView) (any, error)

	// SystemOutput presents a meta-message (validation errors, completion text).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms step text before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
